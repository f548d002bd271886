package engine

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestScoreIsDeterministic(t *testing.T) {
	eng := NewWithClock(fixedClock())
	contact := time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)
	rec := LeadRecord{
		FullName:      "Omar Farouk",
		Email:         "omar@gmail.com",
		Timeline:      "1-3 months",
		PaymentMethod: PaymentMortgage,
		Replied:       true,
		LastContactAt: &contact,
	}
	devs := []Development{{ID: "d1", Name: "Harbour View", Location: "Liverpool"}}

	first, err := eng.Score(context.Background(), rec, devs)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	second, err := eng.Score(context.Background(), rec, devs)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different results:\n%+v\n%+v", first, second)
	}
	if first.ModelVersion != ModelVersion {
		t.Fatalf("ModelVersion = %q", first.ModelVersion)
	}
	if !first.ScoredAt.Equal(fixedClock()()) {
		t.Fatalf("ScoredAt = %v", first.ScoredAt)
	}
}

func TestScoreHotLeadScenario(t *testing.T) {
	eng := NewWithClock(fixedClock())
	rec := LeadRecord{
		FullName:      "Jane Doe",
		PaymentMethod: PaymentCash,
		ProofOfFunds:  true,
		Timeline:      "within 28 days",
		ViewingBooked: true,
	}

	res, err := eng.Score(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Quality.Total < 70 {
		t.Fatalf("quality = %d, want >= 70", res.Quality.Total)
	}
	if res.Intent.Total < 70 {
		t.Fatalf("intent = %d, want >= 70", res.Intent.Total)
	}
	if res.Classification != ClassHotLead {
		t.Fatalf("classification = %s, want %s", res.Classification, ClassHotLead)
	}
	if res.Priority != PriorityP1 {
		t.Fatalf("priority = %s, want P1", res.Priority)
	}
	if !res.Is28DayBuyer {
		t.Fatal("expected 28-day buyer flag")
	}
	if res.IsFake {
		t.Fatalf("flagged as fake: %v", res.FakeFlags)
	}
	assertBreakdownSums(t, res.Quality)
	assertBreakdownSums(t, res.Intent)
}

func TestScoreFakeLeadScenario(t *testing.T) {
	eng := NewWithClock(fixedClock())
	rec := LeadRecord{
		FullName: "Test Spam",
		Email:    "asdf@test.test",
	}

	res, err := eng.Score(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !res.IsFake {
		t.Fatal("expected fake detection")
	}
	if res.Classification != ClassDisqualified {
		t.Fatalf("classification = %s, want %s", res.Classification, ClassDisqualified)
	}
	if res.Priority != PriorityP4 {
		t.Fatalf("priority = %s, want P4", res.Priority)
	}
	if len(res.FakeFlags) == 0 {
		t.Fatal("expected fake flags")
	}
}

func TestScoreStopCommsOverride(t *testing.T) {
	eng := NewWithClock(fixedClock())
	rec := LeadRecord{
		FullName:      "Amira Khan",
		Email:         "amira@gmail.com",
		PaymentMethod: PaymentCash,
		ProofOfFunds:  true,
		Timeline:      "within 28 days",
		ViewingBooked: true,
		StopComms:     true,
	}

	res, err := eng.Score(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Classification != ClassDisqualified {
		t.Fatalf("classification = %s, want %s", res.Classification, ClassDisqualified)
	}
	if res.Intent.Total > intentStopCommsCeiling {
		t.Fatalf("intent = %d, want <= %d", res.Intent.Total, intentStopCommsCeiling)
	}
	if !hasFlag(res.RiskFlags, RiskStopComms) {
		t.Fatalf("missing %s risk flag: %v", RiskStopComms, res.RiskFlags)
	}
}

func TestScoreRiskFlags(t *testing.T) {
	eng := NewWithClock(fixedClock())
	rec := LeadRecord{
		FullName:       "Priya Patel",
		MortgageStatus: MortgageDeclined,
	}

	res, err := eng.Score(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, want := range []string{RiskMortgageDeclined, RiskNoContactInfo, RiskLowEvidence, RiskNoBudget} {
		if !hasFlag(res.RiskFlags, want) {
			t.Fatalf("missing %s risk flag: %v", want, res.RiskFlags)
		}
	}
}
