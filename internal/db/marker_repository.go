package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MarkerRepository persists the highest message id the user has seen per
// chat. The marker only moves forward; the remote read state stays
// authoritative, this copy just keeps unread badges stable across restarts.
type MarkerRepository struct {
	db *DB
}

// NewMarkerRepository creates a new MarkerRepository.
func NewMarkerRepository(db *DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// Advance moves the marker for chatID up to messageID. A lower or equal id is
// a no-op.
func (r *MarkerRepository) Advance(ctx context.Context, chatID, messageID int64) error {
	if chatID <= 0 || messageID <= 0 {
		return errors.New("chat id and message id required")
	}

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO read_markers (chat_id, message_id, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(chat_id) DO UPDATE SET
				message_id = MAX(read_markers.message_id, excluded.message_id),
				updated_at = excluded.updated_at
		`, chatID, messageID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to advance read marker: %w", err)
		}
		return nil
	})
}

// Get returns the marker for chatID, or zero when none is stored.
func (r *MarkerRepository) Get(ctx context.Context, chatID int64) (int64, error) {
	var messageID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT message_id FROM read_markers WHERE chat_id = ?`, chatID,
	).Scan(&messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load read marker: %w", err)
	}
	return messageID, nil
}

// All returns every stored marker keyed by chat id.
func (r *MarkerRepository) All(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id, message_id FROM read_markers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query read markers: %w", err)
	}
	defer rows.Close()

	markers := make(map[int64]int64)
	for rows.Next() {
		var chatID, messageID int64
		if err := rows.Scan(&chatID, &messageID); err != nil {
			return nil, fmt.Errorf("failed to scan read marker: %w", err)
		}
		markers[chatID] = messageID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating read markers: %w", err)
	}
	return markers, nil
}
