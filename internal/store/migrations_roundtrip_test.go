package store

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"
)

func testDatabase(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("JERRYGFIT_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("JERRYGFIT_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	return db
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	db := testDatabase(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	source := MigrationSource("")
	if err := ApplyMigrations(ctx, db, source); err != nil {
		t.Fatalf("apply up migrations (pass 1): %v", err)
	}

	files, err := migrationFiles(source, ".up.sql")
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for range files {
		if _, err := RollbackLast(ctx, db, source); err != nil {
			t.Fatalf("rollback: %v", err)
		}
	}
	version, err := RollbackLast(ctx, db, source)
	if err != nil || version != "" {
		t.Fatalf("RollbackLast() on empty history = %q, %v", version, err)
	}

	if err := ApplyMigrations(ctx, db, source); err != nil {
		t.Fatalf("apply up migrations (pass 2): %v", err)
	}
}
