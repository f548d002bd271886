package engine

// Classification buckets a scored lead for routing.
type Classification string

const (
	ClassHotLead            Classification = "hot_lead"
	ClassQualified          Classification = "qualified"
	ClassNeedsQualification Classification = "needs_qualification"
	ClassNurture            Classification = "nurture"
	ClassLowPriority        Classification = "low_priority"
	ClassDisqualified       Classification = "disqualified"
)

// Classification thresholds. Rules are evaluated strictly in order, so a
// fake or opted-out record is disqualified no matter how well it scores.
const (
	hotQualityMin       = 70
	hotIntentMin        = 70
	qualifiedQualityMin = 55
	qualifiedIntentMin  = 45
	lowConfidenceMax    = 4.0
	nurtureIntentMin    = 30
)

// Priority drives SLA routing. P1 demands a same-hour callback; P4 gets no
// proactive outreach.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// ResponseTime is the target first-response window for the priority.
func (p Priority) ResponseTime() string {
	switch p {
	case PriorityP1:
		return "now"
	case PriorityP2:
		return "today"
	case PriorityP3:
		return "this week"
	default:
		return "no action"
	}
}

// Classify applies the routing rules in order. The first matching rule wins.
func Classify(quality, intent int, confidence float64, isFake, stopComms bool) Classification {
	switch {
	case isFake || stopComms:
		return ClassDisqualified
	case quality >= hotQualityMin && intent >= hotIntentMin:
		return ClassHotLead
	case quality >= qualifiedQualityMin && intent >= qualifiedIntentMin:
		return ClassQualified
	case confidence < lowConfidenceMax:
		return ClassNeedsQualification
	case intent >= nurtureIntentMin && quality < qualifiedQualityMin:
		return ClassNurture
	default:
		return ClassLowPriority
	}
}

// PriorityFor derives the SLA band purely from the classification.
func PriorityFor(class Classification) Priority {
	switch class {
	case ClassHotLead:
		return PriorityP1
	case ClassQualified:
		return PriorityP2
	case ClassNeedsQualification, ClassNurture:
		return PriorityP3
	default:
		return PriorityP4
	}
}
