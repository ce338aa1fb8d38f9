package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func TestOpenAppliesSchema(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for _, table := range []string{"session", "read_markers", "drafts"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	wantErr := errors.New("abort")

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO read_markers (chat_id, message_id, updated_at) VALUES (1, 5, '2026-01-01T00:00:00Z')`,
		); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected abort error, got %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM read_markers`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestIsBusyError(t *testing.T) {
	if !isBusyError(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy error to be detected")
	}
	if isBusyError(context.Canceled) {
		t.Fatal("context cancellation must not be treated as busy")
	}
	if isBusyError(nil) {
		t.Fatal("nil is not busy")
	}
}
