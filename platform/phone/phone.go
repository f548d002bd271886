// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "GB"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, country string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region(country))
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsValid reports whether the input parses as a valid number for the given
// country (ISO 3166-1 alpha-2), falling back to the default region.
func IsValid(input, country string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	number, err := phonenumbers.Parse(trimmed, region(country))
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}

func region(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) == 2 {
		return country
	}
	return defaultRegion
}
