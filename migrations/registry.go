// Package migrations exposes the embedded notification schema migrations per
// dialect so host applications can register them with their migration runner.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	notify "github.com/goliatone/go-remediation-notify"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const migrationsPath = "data/sql/migrations"

// FilesystemSpec pairs one dialect with its migration filesystem.
type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc receives one dialect's migration filesystem. Implementations
// typically forward it to persistence client registration.
type RegisterFunc func(ctx context.Context, dialect string, fsys fs.FS) error

// Filesystems returns the embedded migration filesystems, postgres at the
// tree root and sqlite in its subdirectory. Both must contain at least one
// up migration.
func Filesystems() ([]FilesystemSpec, error) {
	base, err := fs.Sub(notify.GetCoreMigrationsFS(), migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: %s not found: %w", migrationsPath, err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: migrationsPath, FS: base},
		{Dialect: DialectSQLite, Path: migrationsPath + "/sqlite", FS: sqliteFS},
	}

	for _, fsys := range filesystems {
		matches, globErr := fs.Glob(fsys.FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: glob %s %s: %w", fsys.Dialect, fsys.Path, globErr)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", fsys.Dialect, fsys.Path)
		}
	}

	return filesystems, nil
}

// Register invokes registerFn for each requested dialect. With no targets both
// dialects are registered.
func Register(ctx context.Context, registerFn RegisterFunc, targets ...string) error {
	if registerFn == nil {
		return fmt.Errorf("migrations: register function is required")
	}

	wanted := normalizeTargets(targets)
	if len(wanted) == 0 {
		wanted = []string{DialectPostgres, DialectSQLite}
	}

	filesystems, err := Filesystems()
	if err != nil {
		return err
	}

	for _, fsys := range filesystems {
		if !slices.Contains(wanted, fsys.Dialect) {
			continue
		}
		if err := registerFn(ctx, fsys.Dialect, fsys.FS); err != nil {
			return fmt.Errorf("migrations: register %s (%s): %w", fsys.Dialect, fsys.Path, err)
		}
	}

	return nil
}

func normalizeTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		trimmed := strings.TrimSpace(strings.ToLower(target))
		if trimmed == "" || slices.Contains(out, trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
