package adaptive_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitcoach/internal/adaptive"
)

func TestAnalyze(t *testing.T) {
	const (
		easy  = adaptive.FeedbackTooEasy
		right = adaptive.FeedbackJustRight
		bit   = adaptive.FeedbackBitTooHard
		way   = adaptive.FeedbackWayTooHard
	)

	tests := []struct {
		name    string
		history []adaptive.Feedback
		want    adaptive.PatternMetrics
	}{
		{
			name:    "empty history",
			history: nil,
			want:    adaptive.PatternMetrics{Trending: adaptive.TrendStable},
		},
		{
			name:    "easy streak",
			history: []adaptive.Feedback{right, easy, easy},
			want:    adaptive.PatternMetrics{ConsistentEasy: 2, Trending: adaptive.TrendEasier},
		},
		{
			name:    "mixed hard categories form one streak",
			history: []adaptive.Feedback{easy, bit, way, bit},
			want:    adaptive.PatternMetrics{ConsistentHard: 3, Trending: adaptive.TrendStable},
		},
		{
			name:    "stable streak",
			history: []adaptive.Feedback{way, right, right, right},
			want:    adaptive.PatternMetrics{Stable: 3, Trending: adaptive.TrendStable},
		},
		{
			name:    "harder trend",
			history: []adaptive.Feedback{easy, right, way},
			want:    adaptive.PatternMetrics{ConsistentHard: 1, Trending: adaptive.TrendHarder},
		},
		{
			name:    "trend needs three entries",
			history: []adaptive.Feedback{way, easy},
			want:    adaptive.PatternMetrics{ConsistentEasy: 1, Trending: adaptive.TrendStable},
		},
		{
			name:    "trend looks at last three only",
			history: []adaptive.Feedback{way, way, easy, right, easy},
			want:    adaptive.PatternMetrics{ConsistentEasy: 1, Trending: adaptive.TrendStable},
		},
		{
			name:    "streak broken by newest entry",
			history: []adaptive.Feedback{easy, easy, easy, right},
			want:    adaptive.PatternMetrics{Stable: 1, Trending: adaptive.TrendHarder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adaptive.Analyze(tt.history)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
