package engine

import (
	"strings"

	"estateflow_backend/platform/phone"
)

// SpamResult reports whether a record looks fabricated and why.
type SpamResult struct {
	IsFake bool     `json:"is_fake"`
	Flags  []string `json:"flags"`
}

// Spam detection flag names. Flags are stable identifiers consumed by
// downstream automation, not display strings.
const (
	FlagHoneypot        = "honeypot_triggered"
	FlagSuspiciousEmail = "suspicious_email"
	FlagInvalidPhone    = "invalid_phone"
	FlagPlaceholderName = "placeholder_name"
)

// Disposable and reserved email domains that never belong to a real buyer.
var disposableEmailDomains = map[string]struct{}{
	"mailinator.com":     {},
	"guerrillamail.com":  {},
	"10minutemail.com":   {},
	"tempmail.com":       {},
	"temp-mail.org":      {},
	"throwawaymail.com":  {},
	"yopmail.com":        {},
	"sharklasers.com":    {},
	"trashmail.com":      {},
	"getnada.com":        {},
	"maildrop.cc":        {},
	"dispostable.com":    {},
	"fakeinbox.com":      {},
	"mintemail.com":      {},
	"spamgourmet.com":    {},
	"example.com":        {},
	"example.org":        {},
	"example.net":        {},
	"test.com":           {},
	"email.com":          {},
	"nomail.com":         {},
	"noemail.com":        {},
	"mailcatch.com":      {},
	"inboxbear.com":      {},
	"burnermail.io":      {},
	"mohmal.com":         {},
	"emailondeck.com":    {},
	"33mail.com":         {},
	"anonymbox.com":      {},
	"spambox.us":         {},
	"mytrashmail.com":    {},
	"tempinbox.com":      {},
	"disposablemail.com": {},
}

// Reserved TLDs per RFC 2606. Any address under them is synthetic.
var reservedTLDs = []string{".test", ".invalid", ".example", ".localhost"}

var placeholderNames = map[string]struct{}{
	"test":       {},
	"test test":  {},
	"testing":    {},
	"tester":     {},
	"asdf":       {},
	"asdf asdf":  {},
	"qwerty":     {},
	"abc":        {},
	"aaa":        {},
	"xxx":        {},
	"xyz":        {},
	"foo bar":    {},
	"first last": {},
	"name":       {},
	"full name":  {},
	"n/a":        {},
	"na":         {},
	"none":       {},
	"unknown":    {},
	"anonymous":  {},
	"sample":     {},
	"demo":       {},
	"fake":       {},
	"fake name":  {},
	"no name":    {},
	"asd":        {},
	"sdf":        {},
	"dfg":        {},
	"zzz":        {},
}

// DetectSpam flags records that look fabricated. A single flag is enough to
// mark the record fake; real-but-sloppy data (a typo'd phone number alone)
// still flags but callers see the individual flags and can triage.
func DetectSpam(rec LeadRecord) SpamResult {
	var flags []string

	if rec.Honeypot {
		flags = append(flags, FlagHoneypot)
	}
	if suspiciousEmail(rec.Email) {
		flags = append(flags, FlagSuspiciousEmail)
	}
	if rec.Phone != "" && !phone.IsValid(rec.Phone, rec.Country) {
		flags = append(flags, FlagInvalidPhone)
	}
	if placeholderName(rec.DisplayName()) {
		flags = append(flags, FlagPlaceholderName)
	}

	return SpamResult{IsFake: len(flags) > 0, Flags: flags}
}

func suspiciousEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return true
	}
	domain := email[at+1:]
	if _, ok := disposableEmailDomains[domain]; ok {
		return true
	}
	for _, tld := range reservedTLDs {
		if strings.HasSuffix(domain, tld) {
			return true
		}
	}
	return false
}

func placeholderName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	if _, ok := placeholderNames[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "test ") || strings.HasSuffix(name, " test")
}
