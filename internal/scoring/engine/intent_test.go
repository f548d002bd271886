package engine

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestTimelineUrgency(t *testing.T) {
	tests := []struct {
		timeline string
		want     float64
		in28Days bool
	}{
		{"within 28 days", intentTimeline28Days, true},
		{"asap", intentTimeline28Days, true},
		{"immediately", intentTimeline28Days, true},
		{"1-3 months", intentTimeline1To3, false},
		{"3-6 months", intentTimeline3To6, false},
		{"6-9 months", intentTimeline6To9, false},
		{"9-12 months", intentTimeline9To12, false},
		{"", intentTimelineUnknown, false},
		{"someday maybe", intentTimelineUnknown, false},
	}
	for _, tt := range tests {
		points, in28 := timelineUrgency(tt.timeline)
		if points != tt.want || in28 != tt.in28Days {
			t.Fatalf("timelineUrgency(%q) = (%.0f, %v), want (%.0f, %v)",
				tt.timeline, points, in28, tt.want, tt.in28Days)
		}
	}
}

func TestCalculateIntentUrgentCashBuyer(t *testing.T) {
	rec := LeadRecord{
		Timeline:      "within 28 days",
		PaymentMethod: PaymentCash,
		ViewingBooked: true,
	}
	b := CalculateIntent(rec, testNow)
	want := intentBase + intentTimeline28Days + intentCashPoints + intentViewingBooked
	if b.Total != want {
		t.Fatalf("intent = %d, want %d", b.Total, want)
	}
	assertBreakdownSums(t, b)
}

func TestCalculateIntentRecentContactTiers(t *testing.T) {
	twoDays := testNow.Add(-2 * 24 * time.Hour)
	threeWeeks := testNow.Add(-21 * 24 * time.Hour)
	old := testNow.Add(-90 * 24 * time.Hour)

	base := intentBase + intentTimelineUnknown
	tests := []struct {
		name string
		at   *time.Time
		want int
	}{
		{"two days ago", &twoDays, base + intentContact7Days},
		{"three weeks ago", &threeWeeks, base + intentContact30Days},
		{"three months ago", &old, base},
		{"never contacted", nil, base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CalculateIntent(LeadRecord{LastContactAt: tt.at}, testNow)
			if b.Total != tt.want {
				t.Fatalf("intent = %d, want %d", b.Total, tt.want)
			}
		})
	}
}

func TestCalculateIntentStopCommsCeiling(t *testing.T) {
	contact := testNow.Add(-24 * time.Hour)
	rec := LeadRecord{
		Timeline:         "within 28 days",
		PaymentMethod:    PaymentCash,
		PurchasePurpose:  PurposeResidence,
		Replied:          true,
		LastContactAt:    &contact,
		Transcript:       "called twice, very keen",
		ViewingBooked:    true,
		ViewingConfirmed: true,
		StopComms:        true,
	}
	b := CalculateIntent(rec, testNow)
	if b.Total != intentStopCommsCeiling {
		t.Fatalf("stop-comms intent = %d, want ceiling %d", b.Total, intentStopCommsCeiling)
	}
	assertBreakdownSums(t, b)
}

func TestCalculateIntentClampsAt100(t *testing.T) {
	contact := testNow.Add(-24 * time.Hour)
	rec := LeadRecord{
		Timeline:         "within 28 days",
		PaymentMethod:    PaymentCash,
		PurchasePurpose:  PurposeResidence,
		Replied:          true,
		LastContactAt:    &contact,
		Transcript:       "long call, ready to move",
		ViewingBooked:    true,
		ViewingConfirmed: true,
	}
	b := CalculateIntent(rec, testNow)
	if b.Total != 100 {
		t.Fatalf("maxed intent = %d, want 100", b.Total)
	}
	assertBreakdownSums(t, b)
}
