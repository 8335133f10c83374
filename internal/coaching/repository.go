package coaching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/contexthelpers"
	"github.com/myrjola/fitcoach/internal/sqlite"
)

const dateFormat = time.DateOnly

type profileRepository interface {
	// Get returns the profile of the user in ctx or ErrNotFound.
	Get(ctx context.Context) (Profile, error)
	// Set creates the profile with default difficulty or updates its settings.
	Set(ctx context.Context, settings ProfileSettings) (Profile, error)
	// Update loads the profile, applies updateFn and stores the result atomically. A non-nil event returned by
	// updateFn is appended to the feedback history.
	Update(ctx context.Context, updateFn func(p *Profile) (*FeedbackEvent, error)) (Profile, error)
}

type workoutRepository interface {
	// Record upserts the log for its date.
	Record(ctx context.Context, log WorkoutLog) error
	// CountCompleted returns the number of completed workouts of all time.
	CountCompleted(ctx context.Context) (int, error)
	// Performance summarises the logs dated on or after since.
	Performance(ctx context.Context, since time.Time) (adaptive.Performance, error)
}

// repository groups the repositories used by Service.
type repository struct {
	profiles profileRepository
	workouts workoutRepository
}

type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{db: db, logger: logger}
}

func (f *repositoryFactory) newRepository() *repository {
	return &repository{
		profiles: newSQLiteProfileRepository(f.db, f.logger),
		workouts: newSQLiteWorkoutRepository(f.db),
	}
}

// baseRepository holds what every SQLite repository needs.
type baseRepository struct {
	db *sqlite.Database
}

func newBaseRepository(db *sqlite.Database) baseRepository {
	return baseRepository{db: db}
}

// userID returns the user the request acts on.
func (r baseRepository) userID(ctx context.Context) (string, error) {
	userID := contexthelpers.UserID(ctx)
	if userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

// isForeignKeyViolation reports whether err is a violated reference to a missing profile.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseFeedbackColumn(s string) (adaptive.Feedback, error) {
	f, err := adaptive.ParseFeedback(s)
	if err != nil {
		return "", fmt.Errorf("stored feedback: %w", err)
	}
	return f, nil
}
