// Package engine implements the deterministic lead scoring pipeline:
// field normalization, the quality/intent/confidence calculators, the
// fake-lead detector and the classification resolver. Everything in this
// package is pure; persistence and transport live elsewhere.
package engine

import "time"

// Stage is a lead's position in the sales pipeline.
type Stage string

// Pipeline stages, in funnel order. StageNew is the default for records
// arriving without a status.
const (
	StageNew           Stage = "new"
	StageContacted     Stage = "contacted"
	StageQualified     Stage = "qualified"
	StageViewingBooked Stage = "viewing_booked"
	StageOfferMade     Stage = "offer_made"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
)

// Stages lists every valid pipeline stage in order.
var Stages = []Stage{
	StageNew,
	StageContacted,
	StageQualified,
	StageViewingBooked,
	StageOfferMade,
	StageClosedWon,
	StageClosedLost,
}

// IsValidStage reports whether s is one of the fixed pipeline stages.
func IsValidStage(s Stage) bool {
	for _, stage := range Stages {
		if stage == s {
			return true
		}
	}
	return false
}

// ConnectionStatus describes a lead's relationship to a broker or solicitor.
type ConnectionStatus string

const (
	ConnectionYes        ConnectionStatus = "yes"
	ConnectionNo         ConnectionStatus = "no"
	ConnectionIntroduced ConnectionStatus = "introduced"
	ConnectionUnknown    ConnectionStatus = "unknown"
)

// Payment methods recognized by the calculators.
const (
	PaymentCash     = "cash"
	PaymentMortgage = "mortgage"
)

// Mortgage statuses recognized by the calculators.
const (
	MortgageApproved   = "approved"
	MortgageDeclined   = "declined"
	MortgageInProgress = "in_progress"
)

// Purchase purposes recognized by the calculators.
const (
	PurposeResidence  = "residence"
	PurposeInvestment = "investment"
)

// LeadRecord is the canonical view of a buyer. The normalizer produces it
// from any of the historical input shapes; every calculator consumes only
// this shape. All fields except ID are optional.
type LeadRecord struct {
	ID string

	// Contact
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Phone     string
	Country   string

	// Requirements
	BudgetMin         float64
	BudgetMax         float64
	Bedrooms          int
	PreferredLocation string
	PurchasePurpose   string
	Timeline          string

	// Financial
	PaymentMethod   string
	MortgageStatus  string
	ProofOfFunds    bool
	BrokerStatus    ConnectionStatus
	SolicitorStatus ConnectionStatus

	// Engagement
	Replied          bool
	LastContactAt    *time.Time
	ViewingBooked    bool
	ViewingConfirmed bool
	Transcript       string
	StopComms        bool

	// Provenance
	Source          string
	CampaignID      string
	DevelopmentID   string
	DevelopmentName string

	// Honeypot is set when the raw input carried a bot-trap marker field.
	// Only the fake-lead detector looks at it.
	Honeypot bool

	Status          Stage
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StatusChangedAt time.Time
}

// HasBudget reports whether the lead stated any budget band.
func (r LeadRecord) HasBudget() bool {
	return r.BudgetMin > 0 || r.BudgetMax > 0
}

// DisplayName returns the best available name for the lead.
func (r LeadRecord) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	if r.FirstName != "" || r.LastName != "" {
		if r.FirstName == "" {
			return r.LastName
		}
		if r.LastName == "" {
			return r.FirstName
		}
		return r.FirstName + " " + r.LastName
	}
	return ""
}

// Development describes an active development used for inventory-fit checks.
// The scoring engine treats it as optional context supplied by the caller.
type Development struct {
	ID       string
	Name     string
	Location string
	Bedrooms []int
}
