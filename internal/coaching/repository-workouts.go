package coaching

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/sqlite"
)

// sqliteWorkoutRepository implements workoutRepository.
type sqliteWorkoutRepository struct {
	baseRepository
}

func newSQLiteWorkoutRepository(db *sqlite.Database) *sqliteWorkoutRepository {
	return &sqliteWorkoutRepository{
		baseRepository: newBaseRepository(db),
	}
}

func (r *sqliteWorkoutRepository) Record(ctx context.Context, log WorkoutLog) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workouts (user_id, workout_date, completed, rating)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, workout_date) DO UPDATE SET
			completed = excluded.completed,
			rating = excluded.rating`,
		userID, formatDate(log.Date), log.Completed, log.Rating)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert workout: %w", err)
	}
	return nil
}

func (r *sqliteWorkoutRepository) CountCompleted(ctx context.Context) (int, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err = r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM workouts WHERE user_id = ? AND completed = 1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count completed workouts: %w", err)
	}
	return count, nil
}

func (r *sqliteWorkoutRepository) Performance(ctx context.Context, since time.Time) (adaptive.Performance, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return adaptive.Performance{}, err
	}

	var (
		total, completed int
		avgRating        sql.NullFloat64
	)
	if err = r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(completed), 0), AVG(rating)
		FROM workouts
		WHERE user_id = ? AND workout_date >= ?`,
		userID, formatDate(since)).Scan(&total, &completed, &avgRating); err != nil {
		return adaptive.Performance{}, fmt.Errorf("query performance: %w", err)
	}

	// Without logs there is no evidence to change the cadence either way.
	if total == 0 {
		return adaptive.Performance{CompletionRate: 1, AverageFeedback: 0}, nil
	}
	return adaptive.Performance{
		CompletionRate:  float64(completed) / float64(total),
		AverageFeedback: avgRating.Float64,
	}, nil
}
