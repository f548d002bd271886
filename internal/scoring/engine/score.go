package engine

import "math"

// Factor is one entry in a score breakdown. The points of all entries in a
// breakdown always sum to the breakdown's total, including the baseline and
// any clamp adjustment, so every score is fully auditable.
type Factor struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
	Reason string  `json:"reason"`
}

// ScoreBreakdown is an integer score in [0,100] with its factor trail.
type ScoreBreakdown struct {
	Total   int      `json:"total"`
	Factors []Factor `json:"factors"`
}

// ConfidenceBreakdown is the 0-10 evidence score with its factor trail.
// The total is multiplied by 10 only at the storage boundary.
type ConfidenceBreakdown struct {
	Total   float64  `json:"total"`
	Factors []Factor `json:"factors"`
}

// builder accumulates factors. Zero-point factors are skipped, which keeps
// the sum invariant intact while leaving breakdowns readable.
type builder struct {
	factors []Factor
	total   float64
}

func (b *builder) add(name string, points float64, reason string) {
	if points == 0 {
		return
	}
	b.factors = append(b.factors, Factor{Factor: name, Points: points, Reason: reason})
	b.total += points
}

// finishInt clamps the running total into [0,100] exactly once, recording
// the correction as its own factor so the breakdown still sums to the total.
func (b *builder) finishInt() ScoreBreakdown {
	total := math.Round(b.total)
	if total < 0 {
		b.add("range_clamp", -total, "score floor is 0")
		total = 0
	} else if total > 100 {
		b.add("range_clamp", 100-total, "score ceiling is 100")
		total = 100
	}
	return ScoreBreakdown{Total: int(total), Factors: b.factors}
}

// finishConfidence clamps into [0,10] at one decimal of precision.
func (b *builder) finishConfidence() ConfidenceBreakdown {
	total := roundTenth(b.total)
	if total < 0 {
		b.add("range_clamp", -total, "confidence floor is 0")
		total = 0
	} else if total > 10 {
		b.add("range_clamp", roundTenth(10-total), "confidence ceiling is 10")
		total = 10
	}
	return ConfidenceBreakdown{Total: total, Factors: b.factors}
}

// capAt lowers the total to ceiling if it exceeds it, recording the override
// as a factor. Used for the stop-communication hard ceiling, which is an
// override applied after everything else, not an additive penalty.
func (b *builder) capAt(name string, ceiling float64, reason string) {
	if b.total > ceiling {
		b.add(name, ceiling-b.total, reason)
	}
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
