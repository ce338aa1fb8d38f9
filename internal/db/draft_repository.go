package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Draft is unsent compose state for one chat.
type Draft struct {
	ChatID       int64
	Body         string
	PhotoURL     string
	PhotoCaption string
	UpdatedAt    time.Time
}

// Empty reports whether the draft carries nothing worth keeping.
func (d Draft) Empty() bool {
	return d.Body == "" && d.PhotoURL == ""
}

// DraftRepository keeps per-chat compose drafts so half-written messages
// survive switching conversations and restarting the client.
type DraftRepository struct {
	db *DB
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db *DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Save upserts the draft for its chat. Saving an empty draft deletes the row.
func (r *DraftRepository) Save(ctx context.Context, draft Draft) error {
	if draft.ChatID <= 0 {
		return errors.New("chat id required")
	}
	if draft.Empty() {
		return r.Clear(ctx, draft.ChatID)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drafts (chat_id, body, photo_url, photo_caption, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			body = excluded.body,
			photo_url = excluded.photo_url,
			photo_caption = excluded.photo_caption,
			updated_at = excluded.updated_at
	`,
		draft.ChatID,
		draft.Body,
		draft.PhotoURL,
		draft.PhotoCaption,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Load returns the draft for chatID. A missing draft is an empty one, not an
// error.
func (r *DraftRepository) Load(ctx context.Context, chatID int64) (Draft, error) {
	var (
		draft     Draft
		photoURL  sql.NullString
		caption   sql.NullString
		updatedAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, body, photo_url, photo_caption, updated_at
		FROM drafts
		WHERE chat_id = ?
	`, chatID).Scan(&draft.ChatID, &draft.Body, &photoURL, &caption, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{ChatID: chatID}, nil
		}
		return Draft{}, fmt.Errorf("failed to load draft: %w", err)
	}

	draft.PhotoURL = photoURL.String
	draft.PhotoCaption = caption.String

	parsed, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to parse draft updated_at: %w", err)
	}
	draft.UpdatedAt = parsed

	return draft, nil
}

// Clear removes the draft for chatID, if any.
func (r *DraftRepository) Clear(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}
