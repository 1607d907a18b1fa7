// Package postgres applies the embedded schema migrations.
package postgres

import (
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies pending migrations in filename order. Each migration
// runs in its own transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	const createStmt = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	if _, err := db.Exec(ctx, createStmt); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if err := apply(ctx, db, name); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}

		slog.InfoContext(ctx, fmt.Sprintf("postgres: applied migration %s", name))
	}

	return nil
}

func isApplied(ctx context.Context, db *pgxpool.Pool, name string) (bool, error) {
	const stmt = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1);`

	var applied bool
	if err := db.QueryRow(ctx, stmt, name).Scan(&applied); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}

	return applied, nil
}

func apply(ctx context.Context, db *pgxpool.Pool, name string) (err error) {
	sql, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, string(sql)); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1);`, name); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
