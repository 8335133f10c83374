// Package coaching stores user profiles, feedback and workout logs and runs them through the adaptive engine.
package coaching

import (
	"errors"
	"fmt"
	"time"

	"github.com/myrjola/fitcoach/internal/adaptive"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNoUser         = errors.New("no user in context")
	ErrInvalidWorkout = errors.New("invalid workout log")
)

// Profile is the adaptive state of one user.
type Profile struct {
	DifficultyLevel     float64             `json:"difficultyLevel"`
	FitnessLevel        adaptive.Tier       `json:"fitnessLevel"`
	WorkoutFrequency    adaptive.Preference `json:"workoutFrequency"`
	LastWorkoutFeedback *adaptive.Feedback  `json:"lastWorkoutFeedback"`
	// History holds at most adaptive.MaxHistory entries, oldest first.
	History []adaptive.Feedback `json:"feedbackHistory"`
}

// ProfileSettings are the user-editable parts of a Profile.
type ProfileSettings struct {
	FitnessLevel     adaptive.Tier
	WorkoutFrequency adaptive.Preference
}

// FeedbackEvent is one stored feedback submission.
type FeedbackEvent struct {
	ID               string
	Feedback         adaptive.Feedback
	DifficultyBefore float64
	DifficultyAfter  float64
}

// WorkoutLog records whether the user did the workout planned for a day.
type WorkoutLog struct {
	Date      time.Time
	Completed bool
	// Rating is the optional 1-5 enjoyment rating.
	Rating *int
}

// Dashboard is the overview shown to a user.
type Dashboard struct {
	Profile       Profile                          `json:"profile"`
	TotalWorkouts int                              `json:"totalWorkouts"`
	Motivation    string                           `json:"motivation"`
	Frequency     adaptive.FrequencyRecommendation `json:"frequency"`
	Performance   adaptive.Performance             `json:"performance"`
}

func (w WorkoutLog) validate() error {
	if w.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidWorkout)
	}
	if w.Rating != nil && (*w.Rating < 1 || *w.Rating > 5) {
		return fmt.Errorf("%w: rating %d outside 1-5", ErrInvalidWorkout, *w.Rating)
	}
	return nil
}
