package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFeedback(t *testing.T) {
	tests := []struct {
		name          string
		feedback      string
		tier          string
		before, after float64
		wantTier      string
		wantDirection string
	}{
		{name: "increase", feedback: "too_easy", tier: "fit", before: 1.0, after: 1.15, wantTier: "fit",
			wantDirection: DirectionIncrease},
		{name: "decrease", feedback: "way_too_hard", tier: "athlete", before: 1.0, after: 0.76, wantTier: "athlete",
			wantDirection: DirectionDecrease},
		{name: "unchanged without tier", feedback: "just_right", tier: "", before: 1.0, after: 1.0,
			wantTier: "unknown", wantDirection: DirectionUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedback := feedbackCounter.WithLabelValues(tt.feedback, tt.wantTier)
			direction := adjustmentCounter.WithLabelValues(tt.wantDirection)
			beforeFeedback := testutil.ToFloat64(feedback)
			beforeDirection := testutil.ToFloat64(direction)

			RecordFeedback(tt.feedback, tt.tier, tt.before, tt.after)

			if got := testutil.ToFloat64(feedback) - beforeFeedback; got != 1 {
				t.Errorf("feedback counter delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(direction) - beforeDirection; got != 1 {
				t.Errorf("%s counter delta = %v, want 1", tt.wantDirection, got)
			}
		})
	}
}

func TestRecordWorkout(t *testing.T) {
	completed := workoutCounter.WithLabelValues("true")
	skipped := workoutCounter.WithLabelValues("false")
	beforeCompleted, beforeSkipped := testutil.ToFloat64(completed), testutil.ToFloat64(skipped)

	RecordWorkout(true)
	RecordWorkout(true)
	RecordWorkout(false)

	if got := testutil.ToFloat64(completed) - beforeCompleted; got != 2 {
		t.Errorf("completed delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(skipped) - beforeSkipped; got != 1 {
		t.Errorf("skipped delta = %v, want 1", got)
	}
}

func TestRecordRequest(t *testing.T) {
	RecordRequest("GET /users/{userID}/profile", 200, 3*time.Millisecond)
	RecordRequest("", 404, time.Millisecond)

	if got := testutil.CollectAndCount(requestDuration, "fitcoach_http_request_duration_seconds"); got < 2 {
		t.Errorf("request duration series = %d, want at least 2", got)
	}
}
