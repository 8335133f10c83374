package adaptive_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitcoach/internal/adaptive"
)

func TestParseTuning(t *testing.T) {
	data := []byte(`
base_rates:
  too_easy: 0.2
amplification_factor: 2
tier_modifiers:
  athlete: 1.5
`)
	got, err := adaptive.ParseTuning(data)
	if err != nil {
		t.Fatalf("ParseTuning() unexpected error: %v", err)
	}

	want := adaptive.DefaultTuning()
	want.BaseRates[adaptive.FeedbackTooEasy] = 0.2
	want.AmplificationFactor = 2
	want.TierModifiers[adaptive.TierAthlete] = 1.5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseTuning() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTuning_emptyDocumentKeepsDefaults(t *testing.T) {
	got, err := adaptive.ParseTuning(nil)
	if err != nil {
		t.Fatalf("ParseTuning() unexpected error: %v", err)
	}
	if diff := cmp.Diff(adaptive.DefaultTuning(), got); diff != "" {
		t.Errorf("ParseTuning() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTuning_invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "just right moves difficulty", data: "base_rates:\n  just_right: 0.1\n"},
		{name: "way too hard wipes difficulty", data: "base_rates:\n  way_too_hard: -1\n"},
		{name: "unknown feedback", data: "base_rates:\n  meh: 0.1\n"},
		{name: "damping amplification", data: "amplification_factor: 0.5\n"},
		{name: "negative threshold", data: "significant_change: -0.1\n"},
		{name: "non-positive modifier", data: "tier_modifiers:\n  beginner: 0\n"},
		{name: "unknown tier", data: "tier_modifiers:\n  elite: 1.3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adaptive.ParseTuning([]byte(tt.data))
			if !errors.Is(err, adaptive.ErrInvalidTuning) {
				t.Errorf("ParseTuning() error = %v, want %v", err, adaptive.ErrInvalidTuning)
			}
		})
	}
}

func TestParseTuning_malformedYAML(t *testing.T) {
	_, err := adaptive.ParseTuning([]byte("base_rates: [1, 2"))
	if err == nil {
		t.Fatal("ParseTuning() expected error for malformed YAML")
	}
}

func TestLoadTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("significant_change: 0.1\n"), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	got, err := adaptive.LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning() unexpected error: %v", err)
	}
	if got.SignificantChange != 0.1 {
		t.Errorf("SignificantChange = %v, want 0.1", got.SignificantChange)
	}

	if _, err = adaptive.LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadTuning() error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestNewEngine(t *testing.T) {
	if _, err := adaptive.NewEngine(adaptive.Tuning{}); !errors.Is(err, adaptive.ErrInvalidTuning) {
		t.Errorf("NewEngine(zero) error = %v, want %v", err, adaptive.ErrInvalidTuning)
	}

	tuning := adaptive.DefaultTuning()
	tuning.BaseRates[adaptive.FeedbackTooEasy] = 0.3
	engine, err := adaptive.NewEngine(tuning)
	if err != nil {
		t.Fatalf("NewEngine() unexpected error: %v", err)
	}

	// Mutating the caller's maps must not leak into the engine.
	tuning.BaseRates[adaptive.FeedbackTooEasy] = 0.01
	got, err := engine.ComputeDifficulty(1.0, adaptive.FeedbackTooEasy, nil, adaptive.TierFit)
	if err != nil {
		t.Fatalf("ComputeDifficulty() unexpected error: %v", err)
	}
	if got != 1.3 {
		t.Errorf("ComputeDifficulty() = %v, want 1.3", got)
	}
	if rate := engine.Tuning().BaseRates[adaptive.FeedbackTooEasy]; rate != 0.3 {
		t.Errorf("Tuning().BaseRates[too_easy] = %v, want 0.3", rate)
	}
}
