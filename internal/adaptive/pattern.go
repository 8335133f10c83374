package adaptive

// Trend is the direction the user's recent feedback is moving in.
type Trend string

const (
	TrendEasier Trend = "easier"
	TrendHarder Trend = "harder"
	TrendStable Trend = "stable"
)

// trendWindow is the number of most recent entries the trend looks at.
const trendWindow = 3

// PatternMetrics describes streaks and trends in the feedback history.
type PatternMetrics struct {
	// ConsistentEasy counts trailing too_easy entries.
	ConsistentEasy int `json:"consistentEasy"`
	// ConsistentHard counts trailing bit_too_hard or way_too_hard entries.
	ConsistentHard int `json:"consistentHard"`
	// Stable counts trailing just_right entries.
	Stable   int   `json:"stable"`
	Trending Trend `json:"trending"`
}

// feedbackWeights score each category for trend detection. Easier workouts score higher.
var feedbackWeights = map[Feedback]int{ //nolint:gochecknoglobals // lookup table
	FeedbackWayTooHard: -2, //nolint:mnd // hardest
	FeedbackBitTooHard: -1,
	FeedbackJustRight:  0,
	FeedbackTooEasy:    1,
}

// Analyze derives streak and trend metrics from history, oldest entry first.
func Analyze(history []Feedback) PatternMetrics {
	history = recent(history, MaxHistory)
	return PatternMetrics{
		ConsistentEasy: trailingCount(history, func(f Feedback) bool { return f == FeedbackTooEasy }),
		ConsistentHard: trailingCount(history, Feedback.isHard),
		Stable:         trailingCount(history, func(f Feedback) bool { return f == FeedbackJustRight }),
		Trending:       trend(history),
	}
}

// trailingCount counts consecutive entries matching match, scanning back from the most recent one.
func trailingCount(history []Feedback, match func(Feedback) bool) int {
	count := 0
	for i := len(history) - 1; i >= 0 && match(history[i]); i-- {
		count++
	}
	return count
}

func trend(history []Feedback) Trend {
	if len(history) < trendWindow {
		return TrendStable
	}
	window := history[len(history)-trendWindow:]
	switch delta := feedbackWeights[window[trendWindow-1]] - feedbackWeights[window[0]]; {
	case delta > 0:
		return TrendEasier
	case delta < 0:
		return TrendHarder
	default:
		return TrendStable
	}
}
