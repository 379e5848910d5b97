// Package migrations holds the SQL schema for every supported database
// and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

var dirs = map[goose.Dialect]string{
	goose.DialectPostgres: "postgres",
	goose.DialectSQLite3:  "sqlite",
}

// Up applies all pending migrations for dialect.
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect, log *slog.Logger) error {
	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied", "dialect", string(dialect), "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
