package adaptive

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the constants of the difficulty model.
type Tuning struct {
	// BaseRates is the relative difficulty change per feedback category.
	BaseRates map[Feedback]float64 `yaml:"base_rates"`
	// AmplificationFactor scales the rate when the same complaint repeats.
	AmplificationFactor float64 `yaml:"amplification_factor"`
	// SignificantChange is the absolute difficulty delta above which the recommendation flags a difficulty change.
	SignificantChange float64 `yaml:"significant_change"`
	// TierModifiers scale the rate so that experienced users get larger swings.
	TierModifiers map[Tier]float64 `yaml:"tier_modifiers"`
}

// DefaultTuning returns the production tuning.
func DefaultTuning() Tuning {
	return Tuning{
		BaseRates: map[Feedback]float64{
			FeedbackTooEasy:    0.15,  //nolint:mnd // 15% harder
			FeedbackJustRight:  0,
			FeedbackBitTooHard: -0.10, //nolint:mnd // 10% easier
			FeedbackWayTooHard: -0.20, //nolint:mnd // 20% easier
		},
		AmplificationFactor: 1.5,  //nolint:mnd // repeated complaint
		SignificantChange:   0.05, //nolint:mnd // noticeable change
		TierModifiers: map[Tier]float64{
			TierBeginner: 0.8, //nolint:mnd // gentle swings
			TierCasual:   0.9, //nolint:mnd
			TierFit:      1.0,
			TierAthlete:  1.2, //nolint:mnd // bold swings
		},
	}
}

// LoadTuning reads a YAML tuning file. Keys missing from the file keep their default values.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(data)
}

// ParseTuning decodes YAML tuning overlaid on DefaultTuning and validates the result.
func ParseTuning(data []byte) (Tuning, error) {
	var overlay Tuning
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Tuning{}, fmt.Errorf("unmarshal tuning: %w", err)
	}

	t := DefaultTuning()
	maps.Copy(t.BaseRates, overlay.BaseRates)
	maps.Copy(t.TierModifiers, overlay.TierModifiers)
	if overlay.AmplificationFactor != 0 {
		t.AmplificationFactor = overlay.AmplificationFactor
	}
	if overlay.SignificantChange != 0 {
		t.SignificantChange = overlay.SignificantChange
	}

	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate checks that t keeps the invariants the engine relies on.
func (t Tuning) Validate() error {
	for _, f := range Feedbacks() {
		if _, ok := t.BaseRates[f]; !ok {
			return fmt.Errorf("%w: missing base rate for %s", ErrInvalidTuning, f)
		}
	}
	for f := range t.BaseRates {
		if !f.Valid() {
			return fmt.Errorf("%w: base rate for unknown feedback %q", ErrInvalidTuning, f)
		}
	}
	// just_right must never move the difficulty.
	if t.BaseRates[FeedbackJustRight] != 0 {
		return fmt.Errorf("%w: just_right base rate must be 0", ErrInvalidTuning)
	}
	if t.BaseRates[FeedbackWayTooHard] <= -1 {
		return fmt.Errorf("%w: way_too_hard base rate must be above -1", ErrInvalidTuning)
	}
	if t.AmplificationFactor < 1 {
		return fmt.Errorf("%w: amplification factor %v below 1", ErrInvalidTuning, t.AmplificationFactor)
	}
	if t.SignificantChange < 0 {
		return fmt.Errorf("%w: negative significant change threshold", ErrInvalidTuning)
	}
	for _, tier := range Tiers() {
		modifier, ok := t.TierModifiers[tier]
		if !ok {
			return fmt.Errorf("%w: missing modifier for %s", ErrInvalidTuning, tier)
		}
		if modifier <= 0 {
			return fmt.Errorf("%w: modifier for %s must be positive", ErrInvalidTuning, tier)
		}
	}
	for tier := range t.TierModifiers {
		if !tier.Valid() {
			return fmt.Errorf("%w: modifier for unknown tier %q", ErrInvalidTuning, tier)
		}
	}
	return nil
}

// clone returns a deep copy so an Engine never shares maps with its caller.
func (t Tuning) clone() Tuning {
	c := t
	c.BaseRates = maps.Clone(t.BaseRates)
	c.TierModifiers = maps.Clone(t.TierModifiers)
	return c
}
