package sqlite

import (
	"log/slog"
	"testing"

	"github.com/myrjola/fitcoach/internal/testhelpers"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()

	const (
		profiles        = "CREATE TABLE profiles (user_id TEXT PRIMARY KEY)"
		profilesWithLvl = "CREATE TABLE profiles (user_id TEXT PRIMARY KEY, difficulty_level REAL)"
		levelIndex      = "CREATE INDEX profiles_level ON profiles (difficulty_level)"
		levelIndexWide  = "CREATE INDEX profiles_level ON profiles (user_id, difficulty_level)"
		failingTrigger  = `CREATE TRIGGER profiles_guard AFTER INSERT ON profiles
BEGIN SELECT RAISE(FAIL, 'rejected'); END`
		passingTrigger = `CREATE TRIGGER profiles_guard AFTER INSERT ON profiles BEGIN SELECT 1; END`
	)

	tests := []struct {
		name      string
		schemas   []string
		query     string
		wantErr   bool
		wantCount int
	}{
		{
			name:    "empty schema",
			schemas: []string{""},
			query:   "SELECT * FROM sqlite_schema",
		},
		{
			name:    "create table",
			schemas: []string{profiles},
			query:   "INSERT INTO profiles (user_id) VALUES ('u1')",
		},
		{
			name:    "drop table",
			schemas: []string{profiles, ""},
			query:   "INSERT INTO profiles (user_id) VALUES ('u1')",
			wantErr: true,
		},
		{
			name:    "add column",
			schemas: []string{profiles, profilesWithLvl},
			query:   "INSERT INTO profiles (user_id, difficulty_level) VALUES ('u1', 1.2)",
		},
		{
			name:    "remove column",
			schemas: []string{profiles, profilesWithLvl, profiles},
			query:   "INSERT INTO profiles (user_id, difficulty_level) VALUES ('u1', 1.2)",
			wantErr: true,
		},
		{
			name:    "create index",
			schemas: []string{profilesWithLvl + ";" + levelIndex},
			query:   "DROP INDEX profiles_level",
		},
		{
			name:    "drop index",
			schemas: []string{profilesWithLvl + ";" + levelIndex, profilesWithLvl},
			query:   "DROP INDEX profiles_level",
			wantErr: true,
		},
		{
			name:    "update index",
			schemas: []string{profilesWithLvl + ";" + levelIndex, profilesWithLvl + ";" + levelIndexWide},
			query:   "DROP INDEX profiles_level",
		},
		{
			name:    "index survives table rebuild",
			schemas: []string{profiles + ";" + "CREATE INDEX profiles_id ON profiles (user_id)", profilesWithLvl + ";" + "CREATE INDEX profiles_id ON profiles (user_id)"},
			query:   "DROP INDEX profiles_id",
		},
		{
			name:    "create trigger",
			schemas: []string{profiles + ";" + failingTrigger},
			query:   "INSERT INTO profiles (user_id) VALUES ('u1')",
			wantErr: true,
		},
		{
			name:    "delete trigger",
			schemas: []string{profiles + ";" + failingTrigger, profiles},
			query:   "INSERT INTO profiles (user_id) VALUES ('u1')",
		},
		{
			name:    "update trigger",
			schemas: []string{profiles + ";" + failingTrigger, profiles + ";" + passingTrigger},
			query:   "INSERT INTO profiles (user_id) VALUES ('u1')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("Failed to connect to database: %v", err)
			}
			t.Cleanup(func() {
				if err := db.Close(); err != nil {
					t.Errorf("Failed to close database: %v", err)
				}
			})

			for _, schema := range tt.schemas {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schema))
				if err = db.migrateTo(ctx, schema); err != nil {
					t.Fatalf("Failed to migrate: %v", err)
				}
			}

			_, err = db.ReadWrite.ExecContext(ctx, tt.query)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for query %q, but got none", tt.query)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error for query %q: %v", tt.query, err)
			}
		})
	}
}

func TestDatabase_migrateTo_keepsData(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := connect(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = db.migrateTo(ctx, "CREATE TABLE profiles (user_id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("migrate v1: %v", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO profiles (user_id) VALUES ('u1'), ('u2')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err = db.migrateTo(ctx,
		"CREATE TABLE profiles (user_id TEXT PRIMARY KEY, difficulty_level REAL NOT NULL DEFAULT 1.0)"); err != nil {
		t.Fatalf("migrate v2: %v", err)
	}

	var count int
	var total float64
	if err = db.ReadWrite.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(difficulty_level) FROM profiles").Scan(&count, &total); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || total != 2.0 {
		t.Errorf("got %d rows with total difficulty %v, want 2 rows with 2.0", count, total)
	}
}

func TestNewDatabase_schemaIsStable(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := NewDatabase(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Migrating again to the same schema is a no-op.
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "valid profile", query: "INSERT INTO profiles (user_id, fitness_level) VALUES ('u1', 'fit')"},
		{name: "difficulty above maximum", query: "INSERT INTO profiles (user_id, difficulty_level) VALUES ('u2', 2.6)", wantErr: true},
		{name: "unknown tier", query: "INSERT INTO profiles (user_id, fitness_level) VALUES ('u3', 'elite')", wantErr: true},
		{name: "workout without profile", query: "INSERT INTO workouts (user_id, workout_date, completed) VALUES ('nobody', '2026-01-02', 1)", wantErr: true},
		{name: "malformed workout date", query: "INSERT INTO workouts (user_id, workout_date, completed) VALUES ('u1', '2026-1-2', 1)", wantErr: true},
		{name: "rating out of range", query: "INSERT INTO workouts (user_id, workout_date, completed, rating) VALUES ('u1', '2026-01-02', 1, 6)", wantErr: true},
		{name: "valid workout", query: "INSERT INTO workouts (user_id, workout_date, completed, rating) VALUES ('u1', '2026-01-02', 1, 4)"},
	}
	for _, tt := range tests {
		_, err = db.ReadWrite.ExecContext(ctx, tt.query)
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}
