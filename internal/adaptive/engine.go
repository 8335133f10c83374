package adaptive

import (
	"fmt"
)

// Engine computes adaptive settings with a fixed Tuning. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	tuning Tuning
}

// NewEngine validates tuning and constructs an Engine.
func NewEngine(tuning Tuning) (*Engine, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	return &Engine{tuning: tuning.clone()}, nil
}

// DefaultEngine returns an Engine with DefaultTuning.
func DefaultEngine() *Engine {
	return &Engine{tuning: DefaultTuning()}
}

// Tuning returns a copy of the engine tuning.
func (e *Engine) Tuning() Tuning {
	return e.tuning.clone()
}

// Input is the profile projection needed to process one feedback submission.
type Input struct {
	CurrentDifficulty float64
	Tier              Tier
	// LastFeedback is nil when the user has not rated any workout yet.
	LastFeedback *Feedback
	// History holds the feedback recorded before LastFeedback, oldest first.
	History []Feedback
}

// Adapt runs the difficulty adjustment and recommendation pipeline for in.
//
// Without feedback the difficulty is left untouched and the recommendation asks the user to complete a workout.
func (e *Engine) Adapt(in Input) (AdaptiveSettings, error) {
	if in.LastFeedback == nil {
		rec, err := e.GenerateRecommendation(in.CurrentDifficulty, in.CurrentDifficulty, nil, in.Tier, PatternMetrics{})
		if err != nil {
			return AdaptiveSettings{}, err
		}
		return AdaptiveSettings{DifficultyLevel: in.CurrentDifficulty, Recommendation: rec}, nil
	}

	feedback := *in.LastFeedback
	newDifficulty, err := e.ComputeDifficulty(in.CurrentDifficulty, feedback, in.History, in.Tier)
	if err != nil {
		return AdaptiveSettings{}, fmt.Errorf("compute difficulty: %w", err)
	}

	metrics := Analyze(AppendHistory(in.History, feedback))
	rec, err := e.GenerateRecommendation(in.CurrentDifficulty, newDifficulty, &feedback, in.Tier, metrics)
	if err != nil {
		return AdaptiveSettings{}, fmt.Errorf("generate recommendation: %w", err)
	}

	return AdaptiveSettings{DifficultyLevel: newDifficulty, Recommendation: rec}, nil
}
