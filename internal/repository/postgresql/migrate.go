package postgresql

import (
	"context"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"pantry-service/internal/apperr"
)

//go:embed migrations/*.sql
var migrations embed.FS

const createSchemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Migrate applies embedded migrations that are not yet recorded in
// schema_migrations, each in its own transaction.
func Migrate(ctx context.Context, db DB, log zerolog.Logger) error {
	if _, err := db.Exec(ctx, createSchemaMigrations); err != nil {
		return apperr.Wrap(err, "create schema_migrations")
	}

	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return apperr.Wrap(err, "read migrations")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		version := strings.SplitN(name, "_", 2)[0]

		var exists bool
		if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return apperr.Wrapf(err, "check %s", name)
		}
		if exists {
			continue
		}

		body, err := migrations.ReadFile(path.Join("migrations", name))
		if err != nil {
			return apperr.Wrapf(err, "read %s", name)
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return apperr.Wrapf(err, "begin %s", name)
		}
		if _, err := tx.Exec(ctx, string(body)); err != nil {
			_ = tx.Rollback(ctx)
			return apperr.Wrapf(err, "execute %s", name)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			return apperr.Wrapf(err, "record %s", name)
		}
		if err := tx.Commit(ctx); err != nil {
			return apperr.Wrapf(err, "commit %s", name)
		}
		log.Info().Str("migration", name).Msg("applied migration")
		applied++
	}

	log.Info().Int("applied", applied).Int("total", len(files)).Msg("migrations complete")
	return nil
}
