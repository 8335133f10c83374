package coaching

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/observability"
	"github.com/myrjola/fitcoach/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// performanceWindow is how far back workout logs count towards the cadence recommendation.
const performanceWindow = 28 * 24 * time.Hour

// Service processes feedback and serves coaching recommendations for the user in the context.
type Service struct {
	repo   *repository
	engine *adaptive.Engine
	rng    adaptive.IntN
	logger *slog.Logger
}

// NewService creates a coaching service. rng picks the motivational messages; nil uses the global random source.
func NewService(db *sqlite.Database, engine *adaptive.Engine, rng adaptive.IntN, logger *slog.Logger) *Service {
	if rng != nil {
		rng = &lockedSource{rng: rng, mu: sync.Mutex{}}
	}
	return &Service{
		repo:   newRepositoryFactory(db, logger).newRepository(),
		engine: engine,
		rng:    rng,
		logger: logger,
	}
}

// lockedSource serializes access to a random source that is not safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rng adaptive.IntN
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// SaveProfile creates the profile or updates its settings. An empty cadence defaults to flexible.
func (s *Service) SaveProfile(ctx context.Context, settings ProfileSettings) (Profile, error) {
	if settings.FitnessLevel != adaptive.TierNone && !settings.FitnessLevel.Valid() {
		return Profile{}, fmt.Errorf("%w: %q", adaptive.ErrInvalidTier, settings.FitnessLevel)
	}
	if settings.WorkoutFrequency == "" {
		settings.WorkoutFrequency = adaptive.PreferenceFlexible
	}
	if !settings.WorkoutFrequency.Valid() {
		return Profile{}, fmt.Errorf("%w: %q", adaptive.ErrInvalidPreference, settings.WorkoutFrequency)
	}

	p, err := s.repo.profiles.Set(ctx, settings)
	if err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved profile",
		slog.String("fitness_level", string(p.FitnessLevel)),
		slog.String("workout_frequency", string(p.WorkoutFrequency)))
	return p, nil
}

// GetProfile returns the profile or ErrNotFound.
func (s *Service) GetProfile(ctx context.Context) (Profile, error) {
	p, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SubmitFeedback adapts the difficulty to the rating of the latest workout and stores the new state.
//
// Submissions for the same user are applied one at a time, each one seeing the history written by the previous.
func (s *Service) SubmitFeedback(ctx context.Context, feedback adaptive.Feedback) (adaptive.AdaptiveSettings, error) {
	if !feedback.Valid() {
		return adaptive.AdaptiveSettings{}, fmt.Errorf("%w: %q", adaptive.ErrInvalidFeedback, feedback)
	}

	var (
		settings adaptive.AdaptiveSettings
		before   float64
	)
	p, err := s.repo.profiles.Update(ctx, func(p *Profile) (*FeedbackEvent, error) {
		var err error
		before = p.DifficultyLevel
		if settings, err = s.engine.Adapt(adaptive.Input{
			CurrentDifficulty: p.DifficultyLevel,
			Tier:              p.FitnessLevel,
			LastFeedback:      &feedback,
			History:           p.History,
		}); err != nil {
			return nil, fmt.Errorf("adapt: %w", err)
		}
		p.DifficultyLevel = settings.DifficultyLevel
		p.LastWorkoutFeedback = &feedback
		return &FeedbackEvent{
			ID:               "",
			Feedback:         feedback,
			DifficultyBefore: before,
			DifficultyAfter:  settings.DifficultyLevel,
		}, nil
	})
	if err != nil {
		return adaptive.AdaptiveSettings{}, fmt.Errorf("submit feedback: %w", err)
	}

	observability.RecordFeedback(string(feedback), string(p.FitnessLevel), before, settings.DifficultyLevel)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "processed feedback",
		slog.String("feedback", string(feedback)),
		slog.Float64("difficulty_before", before),
		slog.Float64("difficulty_after", settings.DifficultyLevel),
		slog.Bool("adjust_volume", settings.Recommendation.AdjustVolume),
		slog.Bool("adjust_rest", settings.Recommendation.AdjustRest))
	return settings, nil
}

// RecordWorkout logs whether the workout of a day was completed.
func (s *Service) RecordWorkout(ctx context.Context, log WorkoutLog) error {
	if err := log.validate(); err != nil {
		return err
	}
	if err := s.repo.workouts.Record(ctx, log); err != nil {
		return fmt.Errorf("record workout: %w", err)
	}
	observability.RecordWorkout(log.Completed)
	return nil
}

// Motivation picks an encouraging message matching the number of completed workouts.
func (s *Service) Motivation(ctx context.Context) (string, error) {
	total, err := s.repo.workouts.CountCompleted(ctx)
	if err != nil {
		return "", fmt.Errorf("motivation: %w", err)
	}
	return adaptive.PickMessage(total, s.rng), nil
}

// Frequency recommends a weekly cadence from the profile preference and the last four weeks of workouts.
func (s *Service) Frequency(ctx context.Context) (adaptive.FrequencyRecommendation, error) {
	p, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return adaptive.FrequencyRecommendation{}, fmt.Errorf("frequency: %w", err)
	}
	perf, err := s.repo.workouts.Performance(ctx, time.Now().Add(-performanceWindow))
	if err != nil {
		return adaptive.FrequencyRecommendation{}, fmt.Errorf("frequency: %w", err)
	}
	return adaptive.OptimizeFrequency(p.WorkoutFrequency, perf), nil
}

// Dashboard loads the profile and workout statistics concurrently and combines them into one overview.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Profile, err = s.repo.profiles.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.TotalWorkouts, err = s.repo.workouts.CountCompleted(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Performance, err = s.repo.workouts.Performance(gctx, time.Now().Add(-performanceWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}

	d.Motivation = adaptive.PickMessage(d.TotalWorkouts, s.rng)
	d.Frequency = adaptive.OptimizeFrequency(d.Profile.WorkoutFrequency, d.Performance)
	return d, nil
}
