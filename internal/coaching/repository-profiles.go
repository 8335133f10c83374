package coaching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/sqlite"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqliteProfileRepository implements profileRepository.
type sqliteProfileRepository struct {
	baseRepository
	logger *slog.Logger
}

func newSQLiteProfileRepository(db *sqlite.Database, logger *slog.Logger) *sqliteProfileRepository {
	return &sqliteProfileRepository{
		baseRepository: newBaseRepository(db),
		logger:         logger,
	}
}

func (r *sqliteProfileRepository) Get(ctx context.Context) (Profile, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Profile{}, err
	}
	return r.load(ctx, r.db.ReadOnly, userID)
}

func (r *sqliteProfileRepository) Set(ctx context.Context, settings ProfileSettings) (Profile, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (user_id, difficulty_level, fitness_level, workout_frequency)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				fitness_level = excluded.fitness_level,
				workout_frequency = excluded.workout_frequency`,
			userID, adaptive.DefaultDifficulty, settings.FitnessLevel, settings.WorkoutFrequency); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		p, err = r.load(ctx, tx, userID)
		return err
	})
	if err != nil {
		return Profile{}, fmt.Errorf("set profile: %w", err)
	}
	return p, nil
}

func (r *sqliteProfileRepository) Update(
	ctx context.Context,
	updateFn func(p *Profile) (*FeedbackEvent, error),
) (Profile, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if p, err = r.load(ctx, tx, userID); err != nil {
			return err
		}

		var event *FeedbackEvent
		if event, err = updateFn(&p); err != nil {
			return fmt.Errorf("update function: %w", err)
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET difficulty_level = ?, fitness_level = ?, workout_frequency = ?, last_feedback = ?
			WHERE user_id = ?`,
			p.DifficultyLevel, p.FitnessLevel, p.WorkoutFrequency, p.LastWorkoutFeedback, userID); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}

		if event == nil {
			return nil
		}
		if err = r.appendFeedback(ctx, tx, userID, event); err != nil {
			return err
		}
		p.History = adaptive.AppendHistory(p.History, event.Feedback)
		return nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// appendFeedback inserts the event and keeps only the newest adaptive.MaxHistory events of the user.
func (r *sqliteProfileRepository) appendFeedback(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	event *FeedbackEvent,
) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate feedback id: %w", err)
	}
	event.ID = id.String()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO feedback_events (id, user_id, feedback, difficulty_before, difficulty_after)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID, userID, event.Feedback, event.DifficultyBefore, event.DifficultyAfter); err != nil {
		return fmt.Errorf("insert feedback event: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM feedback_events
		WHERE user_id = :user_id
		  AND id NOT IN (SELECT id FROM feedback_events WHERE user_id = :user_id ORDER BY id DESC LIMIT :keep)`,
		sql.Named("user_id", userID), sql.Named("keep", adaptive.MaxHistory))
	if err != nil {
		return fmt.Errorf("prune feedback events: %w", err)
	}
	if pruned, _ := res.RowsAffected(); pruned > 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "pruned feedback history", slog.Int64("pruned", pruned))
	}
	return nil
}

// load reads the profile and its feedback window.
func (r *sqliteProfileRepository) load(ctx context.Context, q querier, userID string) (Profile, error) {
	var (
		p            Profile
		lastFeedback sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT difficulty_level, fitness_level, workout_frequency, last_feedback
		FROM profiles
		WHERE user_id = ?`, userID).Scan(&p.DifficultyLevel, &p.FitnessLevel, &p.WorkoutFrequency, &lastFeedback)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}

	if lastFeedback.Valid {
		var f adaptive.Feedback
		if f, err = parseFeedbackColumn(lastFeedback.String); err != nil {
			return Profile{}, err
		}
		p.LastWorkoutFeedback = &f
	}

	if p.History, err = r.history(ctx, q, userID); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// history returns the newest adaptive.MaxHistory feedback entries, oldest first.
func (r *sqliteProfileRepository) history(ctx context.Context, q querier, userID string) ([]adaptive.Feedback, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT feedback
		FROM feedback_events
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`, userID, adaptive.MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("query feedback history: %w", err)
	}
	defer rows.Close()

	var history []adaptive.Feedback
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		var f adaptive.Feedback
		if f, err = parseFeedbackColumn(s); err != nil {
			return nil, err
		}
		history = append(history, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback history: %w", err)
	}
	slices.Reverse(history)
	return history, nil
}
