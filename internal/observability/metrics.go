// Package observability exposes the Prometheus collectors of the coaching service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Adjustment directions.
const (
	DirectionIncrease  = "increase"
	DirectionDecrease  = "decrease"
	DirectionUnchanged = "unchanged"
)

var (
	feedbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "adaptive",
		Name:      "feedback_submitted_total",
		Help:      "Number of feedback submissions processed, labeled by category and fitness tier.",
	}, []string{"feedback", "tier"})

	adjustmentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "adaptive",
		Name:      "difficulty_adjustments_total",
		Help:      "Number of difficulty adjustments by direction.",
	}, []string{"direction"})

	difficultyHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "adaptive",
		Name:      "difficulty_level",
		Help:      "Difficulty multiplier after each feedback submission.",
		Buckets:   prometheus.LinearBuckets(0.3, 0.2, 12), //nolint:mnd // covers [0.3, 2.5]
	})

	workoutCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "coaching",
		Name:      "workouts_recorded_total",
		Help:      "Number of workout log entries recorded, labeled by completion.",
	}, []string{"completed"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by route pattern and status code.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), //nolint:mnd // 1ms to ~2s
	}, []string{"pattern", "code"})
)

func init() {
	prometheus.MustRegister(feedbackCounter, adjustmentCounter, difficultyHistogram, workoutCounter, requestDuration)
}

// RecordFeedback counts a processed feedback submission and the difficulty change it caused.
func RecordFeedback(feedback, tier string, before, after float64) {
	if tier == "" {
		tier = "unknown"
	}
	feedbackCounter.WithLabelValues(feedback, tier).Inc()
	adjustmentCounter.WithLabelValues(Direction(before, after)).Inc()
	difficultyHistogram.Observe(after)
}

// Direction classifies a difficulty change.
func Direction(before, after float64) string {
	switch {
	case after > before:
		return DirectionIncrease
	case after < before:
		return DirectionDecrease
	default:
		return DirectionUnchanged
	}
}

// RecordWorkout counts a recorded workout.
func RecordWorkout(completed bool) {
	workoutCounter.WithLabelValues(strconv.FormatBool(completed)).Inc()
}

// RecordRequest observes the duration of a served request. Requests that matched no route use the "unmatched"
// pattern to keep label cardinality bounded.
func RecordRequest(pattern string, code int, d time.Duration) {
	if pattern == "" {
		pattern = "unmatched"
	}
	requestDuration.WithLabelValues(pattern, strconv.Itoa(code)).Observe(d.Seconds())
}
