package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	// PostgreSQL driver for database/sql, used only for migrations.
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Migrate applies every pending up migration in version order.
// It returns the versions that were applied.
func Migrate(ctx context.Context, databaseURL string) ([]string, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	ups, err := migrationFiles(".up.sql")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range ups {
		version := strings.TrimSuffix(name, ".up.sql")

		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		if err := applyMigration(ctx, db, name, version); err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// MigrationSQL returns the up and down scripts of every migration, ordered so
// that downs can be run first to reset the schema.
func MigrationSQL() (ups []string, downs []string, err error) {
	upNames, err := migrationFiles(".up.sql")
	if err != nil {
		return nil, nil, err
	}
	downNames, err := migrationFiles(".down.sql")
	if err != nil {
		return nil, nil, err
	}
	slices.Reverse(downNames)

	for _, name := range upNames {
		b, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		ups = append(ups, string(b))
	}
	for _, name := range downNames {
		b, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		downs = append(downs, string(b))
	}

	return ups, downs, nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, version string) error {
	script, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version,
	); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

// migrationFiles lists embedded migration file names with the given suffix, sorted.
func migrationFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
