// Package adaptive turns post-workout feedback into difficulty, coaching and cadence recommendations.
//
// Everything in this package is a pure function of its inputs. The one source of randomness, the motivational
// message picker, takes its random source as an argument.
package adaptive

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFeedback = errors.New("invalid feedback category")
	ErrInvalidTier     = errors.New("invalid fitness tier")
	ErrInvalidTuning   = errors.New("invalid tuning")

	ErrInvalidPreference = errors.New("invalid workout frequency preference")
)

// Difficulty bounds. The difficulty multiplier is always clamped to [MinDifficulty, MaxDifficulty].
const (
	MinDifficulty     = 0.3
	MaxDifficulty     = 2.5
	DefaultDifficulty = 1.0

	// MaxHistory is the size of the sliding feedback window.
	MaxHistory = 5
)

// Feedback is the user's categorical rating of a completed workout.
type Feedback string

const (
	FeedbackTooEasy    Feedback = "too_easy"
	FeedbackJustRight  Feedback = "just_right"
	FeedbackBitTooHard Feedback = "bit_too_hard"
	FeedbackWayTooHard Feedback = "way_too_hard"
)

// Feedbacks lists the recognised feedback categories from easiest to hardest.
func Feedbacks() []Feedback {
	return []Feedback{FeedbackTooEasy, FeedbackJustRight, FeedbackBitTooHard, FeedbackWayTooHard}
}

// Valid reports whether f is one of the four recognised categories.
func (f Feedback) Valid() bool {
	switch f {
	case FeedbackTooEasy, FeedbackJustRight, FeedbackBitTooHard, FeedbackWayTooHard:
		return true
	default:
		return false
	}
}

// isHard reports whether the user found the workout too hard to some degree.
func (f Feedback) isHard() bool {
	return f == FeedbackBitTooHard || f == FeedbackWayTooHard
}

// ParseFeedback converts s into a Feedback. Unknown values fail with ErrInvalidFeedback.
func ParseFeedback(s string) (Feedback, error) {
	f := Feedback(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFeedback, s)
	}
	return f, nil
}

// Tier is a coarse classification of the user's fitness level.
type Tier string

const (
	// TierNone means the tier is unknown. Difficulty adjustments then skip the tier modifier.
	TierNone     Tier = ""
	TierBeginner Tier = "beginner"
	TierCasual   Tier = "casual"
	TierFit      Tier = "fit"
	TierAthlete  Tier = "athlete"
)

// Tiers lists the recognised tiers from least to most experienced.
func Tiers() []Tier {
	return []Tier{TierBeginner, TierCasual, TierFit, TierAthlete}
}

// Valid reports whether t is a recognised tier. TierNone is not valid.
func (t Tier) Valid() bool {
	switch t {
	case TierBeginner, TierCasual, TierFit, TierAthlete:
		return true
	default:
		return false
	}
}

// ParseTier converts s into a Tier. Unknown values fail with ErrInvalidTier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// Preference is the user's stated weekly workout cadence.
type Preference string

const (
	PreferenceDaily        Preference = "daily"
	PreferenceThreePerWeek Preference = "three_per_week"
	PreferenceFlexible     Preference = "flexible"
)

// Valid reports whether p is a recognised cadence.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceDaily, PreferenceThreePerWeek, PreferenceFlexible:
		return true
	default:
		return false
	}
}

// ParsePreference converts s into a Preference. Unknown values fail with ErrInvalidPreference.
func ParsePreference(s string) (Preference, error) {
	p := Preference(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPreference, s)
	}
	return p, nil
}

// Recommendation is the coaching decision derived from the latest feedback.
type Recommendation struct {
	AdjustDifficulty bool   `json:"adjustDifficulty"`
	AdjustVolume     bool   `json:"adjustVolume"`
	AdjustRest       bool   `json:"adjustRest"`
	Message          string `json:"message"`
}

// AdaptiveSettings is the result of processing one feedback submission.
type AdaptiveSettings struct {
	DifficultyLevel float64        `json:"difficultyLevel"`
	Recommendation  Recommendation `json:"recommendation"`
}

// FrequencyRecommendation is the recommended weekly cadence.
type FrequencyRecommendation struct {
	// DaysPerWeek is always within [2, 6].
	DaysPerWeek           int    `json:"daysPerWeek"`
	RestDayRecommendation string `json:"restDayRecommendation"`
}

// Performance summarises how the user has kept up with recent workouts.
type Performance struct {
	// CompletionRate is the share of planned workouts completed, in [0, 1].
	CompletionRate float64 `json:"completionRate"`
	// AverageFeedback is the average workout rating on a 1-5 scale.
	AverageFeedback float64 `json:"averageFeedback"`
}

// AppendHistory returns a new history with f appended, keeping at most MaxHistory most recent entries.
func AppendHistory(history []Feedback, f Feedback) []Feedback {
	out := make([]Feedback, 0, MaxHistory)
	out = append(out, recent(history, MaxHistory-1)...)
	return append(out, f)
}

// recent returns the trailing n entries of history.
func recent(history []Feedback, n int) []Feedback {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func validateHistory(history []Feedback) error {
	for i, f := range history {
		if !f.Valid() {
			return fmt.Errorf("history entry %d: %w: %q", i, ErrInvalidFeedback, f)
		}
	}
	return nil
}
