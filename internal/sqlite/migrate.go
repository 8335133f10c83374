package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"
)

// excludeInternal filters out SQLite and Litestream bookkeeping objects.
const excludeInternal = `live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'`

// migrateTo makes the live schema match schemaDefinition declaratively:
//
//  1. tables missing from the target are dropped and new tables are created,
//  2. tables whose definition changed are rebuilt following the 12-step procedure in
//     https://www.sqlite.org/lang_altertable.html#otheralter, keeping the columns both versions share,
//  3. triggers and indexes are dropped, created or recreated to match.
//
// See https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target database: %w", err)
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key validation: %w", err)
	}
	defer db.enableForeignKeys(ctx)

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		m := migration{tx: tx, logger: db.logger}
		if err = m.tables(ctx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []string{"trigger", "index"} {
			if err = m.objects(ctx, typ); err != nil {
				return fmt.Errorf("migrate %ss: %w", typ, err)
			}
		}
		if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
			return fmt.Errorf("foreign key check: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// enableForeignKeys turns foreign key validation back on. Running without it risks silent corruption, so failure
// shuts the process down.
func (db *Database) enableForeignKeys(ctx context.Context) {
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "exit to avoid data corruption",
			slog.Any("error", fmt.Errorf("re-enable foreign key validation: %w", err)))
		if err = syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			os.Exit(1)
		}
	}
}

// attachSchemaTarget creates the target schema in a fresh in-memory database and attaches it as schemaTarget.
// The returned function detaches it again.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target database: %w", err)
	}
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				slog.Any("error", detachErr))
		}
	}, nil
}

// migration runs the diffing statements inside the migration transaction.
type migration struct {
	tx     *sql.Tx
	logger *slog.Logger
}

type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

func (m migration) exec(ctx context.Context, query string) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "migration step", slog.String("query", query))
	if _, err := m.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

// removed lists live objects of typ missing from the target schema.
func (m migration) removed(ctx context.Context, typ string) ([]string, error) {
	return queryColumn(ctx, m.tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.type IS NULL AND `+excludeInternal, typ)
}

// added lists the SQL of target objects of typ missing from the live schema.
func (m migration) added(ctx context.Context, typ string) ([]string, error) {
	return queryColumn(ctx, m.tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ? AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%' AND target.name NOT LIKE '_litestream_%'`, typ)
}

// changed lists objects of typ whose definition differs. Renaming a table quotes its name, so quotes are ignored.
func (m migration) changed(ctx context.Context, typ string) ([]changedSchema, error) {
	rows, err := m.tx.QueryContext(ctx, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '') AND `+excludeInternal, typ)
	if err != nil {
		return nil, fmt.Errorf("query changed %s: %w", typ, err)
	}
	defer rows.Close()

	var changed []changedSchema
	for rows.Next() {
		var c changedSchema
		if err = rows.Scan(&c.name, &c.liveSQL, &c.newSQL); err != nil {
			return nil, fmt.Errorf("scan changed %s: %w", typ, err)
		}
		changed = append(changed, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed %s: %w", typ, err)
	}
	return changed, nil
}

func (m migration) tables(ctx context.Context) error {
	removed, err := m.removed(ctx, "table")
	if err != nil {
		return err
	}
	for _, name := range removed {
		if err = m.exec(ctx, "DROP TABLE "+name); err != nil {
			return err
		}
	}

	added, err := m.added(ctx, "table")
	if err != nil {
		return err
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, "table")
	if err != nil {
		return err
	}
	for _, table := range changed {
		if err = m.rebuild(ctx, table); err != nil {
			return fmt.Errorf("rebuild %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuild recreates a table with its new definition under a temporary name, copies the shared columns, drops the
// old table and renames the new one into place.
func (m migration) rebuild(ctx context.Context, table changedSchema) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table", slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL), slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	if err := m.exec(ctx, strings.Replace(table.newSQL, table.name, tempName, 1)); err != nil {
		return err
	}

	// Quoted so that columns named after SQLite keywords survive.
	columns, err := queryColumn(ctx, m.tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	for _, query := range []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name),
	} {
		if err = m.exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// objects synchronises the triggers or indexes, recreating the ones whose definition changed.
func (m migration) objects(ctx context.Context, typ string) error {
	keyword := strings.ToUpper(typ)

	removed, err := m.removed(ctx, typ)
	if err != nil {
		return err
	}
	for _, name := range removed {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return err
		}
	}

	added, err := m.added(ctx, typ)
	if err != nil {
		return err
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, typ)
	if err != nil {
		return err
	}
	for _, c := range changed {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %s", keyword, c.name)); err != nil {
			return err
		}
		if err = m.exec(ctx, c.newSQL); err != nil {
			return err
		}
	}
	return nil
}

// queryColumn returns the single string column of each row of query.
func queryColumn(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}
