package engine

import "strings"

// Confidence weights. Confidence measures how much evidence backs the other
// scores, on a 0-10 scale with one decimal of precision.
const (
	confidenceCompletenessWeight = 4.0

	confidenceConnectionAnswered = 1.5
	confidenceConnectionDeclined = 1.0
	confidenceProofOfFunds       = 1.0
	confidenceMortgageKnown      = 0.5

	confidenceTranscriptLong  = 1.5
	confidenceTranscriptShort = 0.8
	confidenceReplied         = 0.8
	confidenceContactOnFile   = 0.8
	confidenceViewingActivity = 1.0

	transcriptLongChars = 200
)

// CalculateConfidence scores the evidentiary weight of a record: how much of
// it is populated, how much is verified, and how rich the engagement trail is.
func CalculateConfidence(rec LeadRecord) ConfidenceBreakdown {
	var b builder

	populated, total := countPopulatedFields(rec)
	ratio := float64(populated) / float64(total)
	b.add("field_completeness", roundTenth(ratio*confidenceCompletenessWeight),
		"fields populated")

	scoreConfidenceVerification(&b, rec)
	scoreConfidenceEngagement(&b, rec)

	return b.finishConfidence()
}

func countPopulatedFields(rec LeadRecord) (populated, total int) {
	checks := []bool{
		rec.DisplayName() != "",
		rec.Email != "",
		rec.Phone != "",
		rec.Country != "",
		rec.HasBudget(),
		rec.Bedrooms > 0,
		rec.PreferredLocation != "",
		rec.PurchasePurpose != "",
		rec.Timeline != "",
		rec.PaymentMethod != "",
		rec.MortgageStatus != "",
		rec.BrokerStatus != ConnectionUnknown && rec.BrokerStatus != "",
		rec.SolicitorStatus != ConnectionUnknown && rec.SolicitorStatus != "",
		strings.TrimSpace(rec.Transcript) != "",
		rec.LastContactAt != nil,
		rec.Source != "",
	}
	for _, ok := range checks {
		if ok {
			populated++
		}
	}
	return populated, len(checks)
}

func scoreConfidenceVerification(b *builder, rec LeadRecord) {
	b.add("broker_status", connectionEvidence(rec.BrokerStatus), "broker connection answered")
	b.add("solicitor_status", connectionEvidence(rec.SolicitorStatus), "solicitor connection answered")
	if rec.ProofOfFunds {
		b.add("proof_of_funds", confidenceProofOfFunds, "proof of funds supplied")
	}
	if rec.MortgageStatus != "" {
		b.add("mortgage_status", confidenceMortgageKnown, "mortgage status stated")
	}
}

func connectionEvidence(status ConnectionStatus) float64 {
	switch status {
	case ConnectionYes, ConnectionIntroduced:
		return confidenceConnectionAnswered
	case ConnectionNo:
		return confidenceConnectionDeclined
	default:
		return 0
	}
}

func scoreConfidenceEngagement(b *builder, rec LeadRecord) {
	switch transcript := strings.TrimSpace(rec.Transcript); {
	case len(transcript) >= transcriptLongChars:
		b.add("transcript", confidenceTranscriptLong, "substantial transcript on file")
	case transcript != "":
		b.add("transcript", confidenceTranscriptShort, "transcript on file")
	}
	if rec.Replied {
		b.add("replied", confidenceReplied, "replied to outreach")
	}
	if rec.LastContactAt != nil {
		b.add("contact_history", confidenceContactOnFile, "contact history on file")
	}
	if rec.ViewingBooked || rec.ViewingConfirmed {
		b.add("viewing_activity", confidenceViewingActivity, "viewing activity recorded")
	}
}
