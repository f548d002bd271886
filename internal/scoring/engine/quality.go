package engine

import "strings"

// Quality scoring weights. The baseline plus every positive factor can
// exceed 100 for a fully loaded record, which the final clamp absorbs.
const (
	qualityBase = 40

	qualityFieldPoints = 6 // per core contact/requirement field present

	qualityCashPoints        = 15
	qualityMortgagePoints    = 8
	qualityBudgetKnownPoints = 5
	qualityProofOfFunds      = 10
	qualityMortgageApproved  = 10
	qualityMortgageDeclined  = -10

	qualityConnectionYes        = 8
	qualityConnectionIntroduced = 5
	qualityBothDisconnected     = -8

	qualityInventoryFit = 15
)

// CalculateQuality scores how complete, financially credible and verifiable
// a record is. Inventory fit is neutral when no development context is
// supplied.
func CalculateQuality(rec LeadRecord, developments []Development) ScoreBreakdown {
	var b builder
	b.add("base", qualityBase, "baseline for a submitted lead")

	scoreQualityCompleteness(&b, rec)
	scoreQualityFinancial(&b, rec)
	scoreQualityVerification(&b, rec)
	scoreQualityInventoryFit(&b, rec, developments)

	return b.finishInt()
}

func scoreQualityCompleteness(b *builder, rec LeadRecord) {
	if rec.DisplayName() != "" {
		b.add("has_name", qualityFieldPoints, "name provided")
	}
	if rec.Email != "" {
		b.add("has_email", qualityFieldPoints, "email provided")
	}
	if rec.Phone != "" {
		b.add("has_phone", qualityFieldPoints, "phone provided")
	}
	if rec.HasBudget() {
		b.add("has_budget", qualityFieldPoints, "budget provided")
	}
	if rec.PreferredLocation != "" {
		b.add("has_location", qualityFieldPoints, "target location provided")
	}
}

func scoreQualityFinancial(b *builder, rec LeadRecord) {
	switch rec.PaymentMethod {
	case PaymentCash:
		b.add("cash_buyer", qualityCashPoints, "cash purchase declared")
	case PaymentMortgage:
		b.add("mortgage_buyer", qualityMortgagePoints, "mortgage purchase declared")
	}
	if rec.HasBudget() && rec.PaymentMethod != "" {
		b.add("budget_consistent", qualityBudgetKnownPoints, "budget and payment method both known")
	}
	if rec.ProofOfFunds {
		b.add("proof_of_funds", qualityProofOfFunds, "proof of funds supplied")
	}
	switch rec.MortgageStatus {
	case MortgageApproved:
		b.add("mortgage_approved", qualityMortgageApproved, "mortgage approved in principle")
	case MortgageDeclined:
		b.add("mortgage_declined", qualityMortgageDeclined, "mortgage declined")
	}
}

func scoreQualityVerification(b *builder, rec LeadRecord) {
	switch rec.BrokerStatus {
	case ConnectionYes:
		b.add("broker_connected", qualityConnectionYes, "connected to a broker")
	case ConnectionIntroduced:
		b.add("broker_introduced", qualityConnectionIntroduced, "introduced to a broker")
	}
	switch rec.SolicitorStatus {
	case ConnectionYes:
		b.add("solicitor_connected", qualityConnectionYes, "connected to a solicitor")
	case ConnectionIntroduced:
		b.add("solicitor_introduced", qualityConnectionIntroduced, "introduced to a solicitor")
	}
	if rec.BrokerStatus == ConnectionNo && rec.SolicitorStatus == ConnectionNo {
		b.add("no_professional_support", qualityBothDisconnected, "declined both broker and solicitor")
	}
}

func scoreQualityInventoryFit(b *builder, rec LeadRecord, developments []Development) {
	if len(developments) == 0 {
		return
	}
	for _, dev := range developments {
		if developmentMatches(rec, dev) {
			b.add("inventory_fit", qualityInventoryFit, "requirements match development "+dev.Name)
			return
		}
	}
}

// developmentMatches reports whether a development plausibly satisfies the
// record's stated requirements. Missing requirement data never disqualifies
// a match; only a stated mismatch does.
func developmentMatches(rec LeadRecord, dev Development) bool {
	if rec.Bedrooms > 0 && len(dev.Bedrooms) > 0 {
		found := false
		for _, beds := range dev.Bedrooms {
			if beds == rec.Bedrooms {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if rec.PreferredLocation != "" && dev.Location != "" && !containsFold(dev.Location, rec.PreferredLocation) && !containsFold(rec.PreferredLocation, dev.Location) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
