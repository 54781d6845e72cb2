package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"jerrygfit/api/db"
)

// MigrationSource returns the directory override when set, otherwise the
// migrations compiled into the binary.
func MigrationSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return db.Migrations()
}

func ApplyMigrations(ctx context.Context, conn *sql.DB, source fs.FS) error {
	if err := ensureMigrationsTable(ctx, conn); err != nil {
		return err
	}

	files, err := migrationFiles(source, ".up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		if migrated, err := isMigrated(ctx, conn, file); err != nil {
			return err
		} else if migrated {
			continue
		}

		contents, err := fs.ReadFile(source, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		err = withTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
				return fmt.Errorf("execute migration %s: %w", file, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, file); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// RollbackLast reverts the most recently applied migration and returns its
// version. It returns an empty version when nothing is applied.
func RollbackLast(ctx context.Context, conn *sql.DB, source fs.FS) (string, error) {
	if err := ensureMigrationsTable(ctx, conn); err != nil {
		return "", err
	}

	var version string
	err := conn.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last migration: %w", err)
	}

	downFile := strings.TrimSuffix(version, ".up.sql") + ".down.sql"
	contents, err := fs.ReadFile(source, downFile)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", downFile, err)
	}

	err = withTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("execute migration %s: %w", downFile, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version=$1`, version); err != nil {
			return fmt.Errorf("unrecord migration %s: %w", version, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func migrationFiles(source fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

func ensureMigrationsTable(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

func isMigrated(ctx context.Context, conn *sql.DB, version string) (bool, error) {
	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}
