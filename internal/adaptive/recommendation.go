package adaptive

import (
	"fmt"
	"math"
)

// Thresholds on the trailing streaks that escalate a recommendation.
const (
	acceleratingEasyStreak = 2
	settledStableStreak    = 3
	rebuildHardStreak      = 2
)

const (
	msgNoFeedback   = "Complete a workout and tell us how it felt so we can tune your next session."
	msgAccelerating = "You're crushing it! Workouts have felt easy several times in a row, so we're stepping up " +
		"both intensity and volume."
	msgStepUp           = "Nice work! We're making your next workout a little more challenging."
	msgAddChallenge     = "You've been in the zone for a while. Let's add a small amount of challenge to keep progressing."
	msgComfortable      = "Great, you found a comfortable level. We'll keep your workouts right here."
	msgScaleBack        = "Thanks for the honesty. We're scaling back a little and adding more rest between sets."
	msgRebuild          = "Several tough sessions in a row. Let's rebuild from a lower base with less volume and more rest."
	msgManageable       = "That one was rough. We're making a manageable adjustment and giving you more recovery time."
	suffixBeginner      = " Every step up is proof you're getting stronger, keep it going!"
	suffixAthleteEasier = " Even athletes need lighter days, recovery is part of peak performance."
)

// GenerateRecommendation turns a difficulty change and the latest feedback into a coaching recommendation.
//
// last is nil when no feedback exists yet, in which case the recommendation is neutral.
func (e *Engine) GenerateRecommendation(
	oldDifficulty, newDifficulty float64,
	last *Feedback,
	tier Tier,
	metrics PatternMetrics,
) (Recommendation, error) {
	if last == nil {
		return Recommendation{
			AdjustDifficulty: false,
			AdjustVolume:     false,
			AdjustRest:       false,
			Message:          msgNoFeedback,
		}, nil
	}

	rec := Recommendation{
		AdjustDifficulty: math.Abs(newDifficulty-oldDifficulty) > e.tuning.SignificantChange,
		AdjustVolume:     false,
		AdjustRest:       false,
		Message:          "",
	}

	switch *last {
	case FeedbackTooEasy:
		if metrics.ConsistentEasy >= acceleratingEasyStreak {
			rec.Message = msgAccelerating
			rec.AdjustVolume = true
		} else {
			rec.Message = msgStepUp
		}
	case FeedbackJustRight:
		if metrics.Stable >= settledStableStreak {
			rec.Message = msgAddChallenge
			rec.AdjustDifficulty = true
		} else {
			rec.Message = msgComfortable
		}
	case FeedbackBitTooHard:
		rec.Message = msgScaleBack
		rec.AdjustRest = true
	case FeedbackWayTooHard:
		if metrics.ConsistentHard >= rebuildHardStreak {
			rec.Message = msgRebuild
			rec.AdjustVolume = true
		} else {
			rec.Message = msgManageable
		}
		rec.AdjustRest = true
	default:
		return Recommendation{}, fmt.Errorf("%w: %q", ErrInvalidFeedback, *last)
	}

	switch {
	case tier == TierBeginner && newDifficulty > oldDifficulty:
		rec.Message += suffixBeginner
	case tier == TierAthlete && newDifficulty < oldDifficulty:
		rec.Message += suffixAthleteEasier
	}

	return rec, nil
}
