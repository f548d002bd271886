package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// ModelVersion is stamped on every result so stored scores can be traced
// back to the rule set that produced them. Bump on any weight or rule change.
const ModelVersion = "rules-v1"

// Risk flag names surfaced alongside scores.
const (
	RiskStopComms        = "stop_communication"
	RiskMortgageDeclined = "mortgage_declined"
	RiskNoContactInfo    = "no_contact_info"
	RiskLowEvidence      = "low_evidence"
	RiskNoBudget         = "no_budget"
)

// Result is the complete scoring outcome for one record.
type Result struct {
	Quality        ScoreBreakdown      `json:"quality"`
	Intent         ScoreBreakdown      `json:"intent"`
	Confidence     ConfidenceBreakdown `json:"confidence"`
	Classification Classification      `json:"classification"`
	Priority       Priority            `json:"priority"`
	RiskFlags      []string            `json:"risk_flags"`
	IsFake         bool                `json:"is_fake"`
	FakeFlags      []string            `json:"fake_flags,omitempty"`
	Is28DayBuyer   bool                `json:"is_28_day_buyer"`
	ModelVersion   string              `json:"model_version"`
	ScoredAt       time.Time           `json:"scored_at"`
}

// Engine runs the scoring pipeline. It is stateless and safe for concurrent
// use; the clock is injectable so results are reproducible under test.
type Engine struct {
	now func() time.Time
}

func New() *Engine {
	return &Engine{now: time.Now}
}

// NewWithClock fixes the engine's notion of now.
func NewWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Score runs the calculators concurrently and resolves the classification
// from their outputs. Given the same record, developments and clock it
// always produces the same result.
func (e *Engine) Score(ctx context.Context, rec LeadRecord, developments []Development) (Result, error) {
	now := e.now().UTC()

	var (
		quality    ScoreBreakdown
		intent     ScoreBreakdown
		confidence ConfidenceBreakdown
		spam       SpamResult
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		quality = CalculateQuality(rec, developments)
		return nil
	})
	g.Go(func() error {
		intent = CalculateIntent(rec, now)
		return nil
	})
	g.Go(func() error {
		confidence = CalculateConfidence(rec)
		return nil
	})
	g.Go(func() error {
		spam = DetectSpam(rec)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	class := Classify(quality.Total, intent.Total, confidence.Total, spam.IsFake, rec.StopComms)
	_, in28Days := timelineUrgency(rec.Timeline)

	return Result{
		Quality:        quality,
		Intent:         intent,
		Confidence:     confidence,
		Classification: class,
		Priority:       PriorityFor(class),
		RiskFlags:      riskFlags(rec, confidence.Total),
		IsFake:         spam.IsFake,
		FakeFlags:      spam.Flags,
		Is28DayBuyer:   in28Days,
		ModelVersion:   ModelVersion,
		ScoredAt:       now,
	}, nil
}

func riskFlags(rec LeadRecord, confidence float64) []string {
	var flags []string
	if rec.StopComms {
		flags = append(flags, RiskStopComms)
	}
	if rec.MortgageStatus == MortgageDeclined {
		flags = append(flags, RiskMortgageDeclined)
	}
	if rec.Email == "" && rec.Phone == "" {
		flags = append(flags, RiskNoContactInfo)
	}
	if confidence < lowConfidenceMax {
		flags = append(flags, RiskLowEvidence)
	}
	if !rec.HasBudget() {
		flags = append(flags, RiskNoBudget)
	}
	return flags
}
