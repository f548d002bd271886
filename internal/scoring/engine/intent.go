package engine

import (
	"strings"
	"time"
)

// Intent scoring weights. Timeline urgency dominates; the stop-communication
// ceiling is an override applied after every additive factor.
const (
	intentBase = 15

	intentTimeline28Days   = 35
	intentTimeline1To3     = 25
	intentTimeline3To6     = 18
	intentTimeline6To9     = 12
	intentTimeline9To12    = 8
	intentTimelineUnknown  = 5
	intentCashPoints       = 15
	intentMortgageApproved = 10
	intentMortgagePoints   = 6
	intentResidencePoints  = 10
	intentInvestmentPoints = 7
	intentRepliedPoints    = 10
	intentContact7Days     = 8
	intentContact30Days    = 4
	intentTranscriptPoints = 6
	intentViewingBooked    = 12
	intentViewingConfirmed = 8

	intentStopCommsCeiling = 5
)

// CalculateIntent scores purchase urgency and engagement as of now.
func CalculateIntent(rec LeadRecord, now time.Time) ScoreBreakdown {
	var b builder
	b.add("base", intentBase, "baseline for a submitted lead")

	points, _ := timelineUrgency(rec.Timeline)
	b.add("timeline", points, "timeline to purchase: "+timelineLabel(rec.Timeline))

	scoreIntentFinancialReadiness(&b, rec)
	scoreIntentPurpose(&b, rec)
	scoreIntentEngagement(&b, rec, now)
	scoreIntentCommitment(&b, rec)

	if rec.StopComms {
		b.capAt("stop_communication", intentStopCommsCeiling, "lead asked to stop communication")
	}

	return b.finishInt()
}

// timelineUrgency maps a normalized timeline answer onto points and reports
// whether it falls inside the 28-day window.
func timelineUrgency(timeline string) (float64, bool) {
	switch {
	case is28DayTimeline(timeline):
		return intentTimeline28Days, true
	case matchesTimeline(timeline, "1-3", "1 to 3", "one to three", "next month", "couple of months"):
		return intentTimeline1To3, false
	case matchesTimeline(timeline, "3-6", "3 to 6", "three to six"):
		return intentTimeline3To6, false
	case matchesTimeline(timeline, "6-9", "6 to 9", "six to nine"):
		return intentTimeline6To9, false
	case matchesTimeline(timeline, "9-12", "9 to 12", "nine to twelve", "next year", "12 months"):
		return intentTimeline9To12, false
	default:
		return intentTimelineUnknown, false
	}
}

func is28DayTimeline(timeline string) bool {
	return matchesTimeline(timeline, "28 day", "within 28", "asap", "immediately", "this month", "now")
}

func matchesTimeline(timeline string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(timeline, needle) {
			return true
		}
	}
	return false
}

func timelineLabel(timeline string) string {
	if timeline == "" {
		return "not stated"
	}
	return timeline
}

func scoreIntentFinancialReadiness(b *builder, rec LeadRecord) {
	switch {
	case rec.PaymentMethod == PaymentCash:
		b.add("cash_ready", intentCashPoints, "cash buyers can complete quickly")
	case rec.MortgageStatus == MortgageApproved:
		b.add("mortgage_ready", intentMortgageApproved, "mortgage approved in principle")
	case rec.PaymentMethod == PaymentMortgage:
		b.add("mortgage_planned", intentMortgagePoints, "mortgage purchase declared")
	}
}

func scoreIntentPurpose(b *builder, rec LeadRecord) {
	switch rec.PurchasePurpose {
	case PurposeResidence:
		b.add("primary_residence", intentResidencePoints, "buying a primary residence")
	case PurposeInvestment:
		b.add("investment_purchase", intentInvestmentPoints, "buying an investment property")
	}
}

func scoreIntentEngagement(b *builder, rec LeadRecord, now time.Time) {
	if rec.Replied {
		b.add("replied", intentRepliedPoints, "replied to outreach")
	}
	if rec.LastContactAt != nil {
		switch age := now.Sub(*rec.LastContactAt); {
		case age <= 7*24*time.Hour:
			b.add("recent_contact", intentContact7Days, "contact within the last week")
		case age <= 30*24*time.Hour:
			b.add("recent_contact", intentContact30Days, "contact within the last month")
		}
	}
	if strings.TrimSpace(rec.Transcript) != "" {
		b.add("has_transcript", intentTranscriptPoints, "conversation transcript on file")
	}
}

func scoreIntentCommitment(b *builder, rec LeadRecord) {
	if rec.ViewingBooked {
		b.add("viewing_booked", intentViewingBooked, "viewing booked")
	}
	if rec.ViewingConfirmed {
		b.add("viewing_confirmed", intentViewingConfirmed, "viewing confirmed")
	}
}
