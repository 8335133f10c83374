package adaptive

import (
	"fmt"
	"math"
)

// streakLength is how many trailing history entries must repeat the feedback to amplify the adjustment.
const streakLength = 2

// ComputeDifficulty returns the difficulty multiplier following feedback.
//
// history is the feedback recorded before this one, oldest first; only its trailing MaxHistory entries are
// considered. tier may be TierNone to skip the tier modifier. The result is rounded to two decimals and clamped to
// [MinDifficulty, MaxDifficulty].
func (e *Engine) ComputeDifficulty(current float64, feedback Feedback, history []Feedback, tier Tier) (float64, error) {
	if !feedback.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFeedback, feedback)
	}
	if tier != TierNone && !tier.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	history = recent(history, MaxHistory)
	if err := validateHistory(history); err != nil {
		return 0, err
	}

	rate := e.adjustmentRate(feedback, history, tier)
	if rate == 0 {
		return clamp(current), nil
	}

	return clamp(roundHundredths(current * (1 + rate))), nil
}

// adjustmentRate combines the base rate, streak amplification and tier modifier.
func (e *Engine) adjustmentRate(feedback Feedback, history []Feedback, tier Tier) float64 {
	rate := e.tuning.BaseRates[feedback]

	if feedback != FeedbackJustRight && repeatsTrailing(history, feedback) {
		rate *= e.tuning.AmplificationFactor
	}

	if tier != TierNone {
		rate *= e.tuning.TierModifiers[tier]
	}

	return rate
}

// repeatsTrailing reports whether the last streakLength entries of history all equal f.
func repeatsTrailing(history []Feedback, f Feedback) bool {
	if len(history) < streakLength {
		return false
	}
	for _, h := range history[len(history)-streakLength:] {
		if h != f {
			return false
		}
	}
	return true
}

// roundHundredths rounds v to two decimals. The first rounding strips float noise such as 1.2249999999999999 so
// that exact halves round away from zero.
func roundHundredths(v float64) float64 {
	const noise = 1e9
	v = math.Round(v*noise) / noise
	return math.Round(v*100) / 100 //nolint:mnd // two decimals
}

func clamp(v float64) float64 {
	return math.Min(MaxDifficulty, math.Max(MinDifficulty, v))
}
