// Package migrations embeds the PostgreSQL schema of the activity log.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var FS embed.FS

// Files returns the migration file names in apply order.
func Files() ([]string, error) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Apply runs every migration in order. Statements are idempotent, so Apply
// can run on every deploy. onApplied, if set, is called after each file.
func Apply(ctx context.Context, pool *pgxpool.Pool, onApplied func(name string)) error {
	files, err := Files()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, f := range files {
		sql, err := FS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("execute migration %s: %w", f, err)
		}
		if onApplied != nil {
			onApplied(f)
		}
	}
	return nil
}
