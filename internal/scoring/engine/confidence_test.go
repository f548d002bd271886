package engine

import (
	"math"
	"strings"
	"testing"
	"time"
)

func assertConfidenceSums(t *testing.T, b ConfidenceBreakdown) {
	t.Helper()
	if got := sumFactors(b.Factors); math.Abs(got-b.Total) > 0.01 {
		t.Fatalf("confidence factors sum to %.2f, total is %.1f", got, b.Total)
	}
}

func TestCalculateConfidenceEmptyRecord(t *testing.T) {
	b := CalculateConfidence(LeadRecord{})
	if b.Total != 0 {
		t.Fatalf("empty record confidence = %.1f, want 0", b.Total)
	}
}

func TestCalculateConfidenceClampsAt10(t *testing.T) {
	contact := time.Now()
	rec := LeadRecord{
		FirstName:         "Amira",
		LastName:          "Khan",
		Email:             "amira@gmail.com",
		Phone:             "+447911123456",
		Country:           "GB",
		BudgetMax:         500000,
		Bedrooms:          3,
		PreferredLocation: "Manchester",
		PurchasePurpose:   PurposeResidence,
		Timeline:          "1-3 months",
		PaymentMethod:     PaymentMortgage,
		MortgageStatus:    MortgageApproved,
		BrokerStatus:      ConnectionYes,
		SolicitorStatus:   ConnectionYes,
		ProofOfFunds:      true,
		Replied:           true,
		LastContactAt:     &contact,
		ViewingBooked:     true,
		Transcript:        strings.Repeat("discussed completion dates. ", 10),
		Source:            "portal",
	}

	b := CalculateConfidence(rec)
	if b.Total != 10 {
		t.Fatalf("maxed record confidence = %.1f, want 10", b.Total)
	}
	assertConfidenceSums(t, b)
}

func TestCalculateConfidenceModerateRecord(t *testing.T) {
	rec := LeadRecord{
		FullName:      "Jane Doe",
		Timeline:      "within 28 days",
		PaymentMethod: PaymentCash,
		ProofOfFunds:  true,
		ViewingBooked: true,
	}
	b := CalculateConfidence(rec)
	if b.Total <= 2.0 || b.Total >= 5.0 {
		t.Fatalf("sparse-but-evidenced record confidence = %.1f, want moderate", b.Total)
	}
	assertConfidenceSums(t, b)
}
