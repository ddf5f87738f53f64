package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"retitle/internal/db"
	"retitle/internal/testsupport"
)

func TestOpenCreatesAndReopensSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	database, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	var version int
	if err := database.SQL().QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 1 {
		t.Fatalf("unexpected schema version %d", version)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("close database: %v", err)
	}

	// Reopening an initialized database verifies the version instead of
	// recreating the schema.
	reopened, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("reopen database: %v", err)
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("close reopened database: %v", err)
	}
}

func TestOpenRejectsSchemaVersionMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	database, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := database.SQL().Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("close database: %v", err)
	}

	if _, err := db.Open(cfg); !errors.Is(err, db.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	database := testsupport.MustOpenDB(t, cfg)
	ctx := context.Background()

	failure := errors.New("abort the unit")
	err := database.WithTx(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO predb (title, source) VALUES ('Rolled.Back.Title-GRP', 'test')`); execErr != nil {
			return execErr
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	var count int
	if err := database.SQL().QueryRowContext(ctx,
		`SELECT COUNT(1) FROM predb WHERE title = 'Rolled.Back.Title-GRP'`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled-back insert is visible: %d rows", count)
	}

	if err := database.WithTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx,
			`INSERT INTO predb (title, source) VALUES ('Committed.Title-GRP', 'test')`)
		return execErr
	}); err != nil {
		t.Fatalf("committing WithTx failed: %v", err)
	}
	if err := database.SQL().QueryRowContext(ctx,
		`SELECT COUNT(1) FROM predb WHERE title = 'Committed.Title-GRP'`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("committed insert missing: %d rows", count)
	}
}
