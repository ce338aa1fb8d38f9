package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/convohq/convo/internal/models"
)

// ErrSessionNotFound is returned when no login session is persisted.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists the logged-in user. At most one session row
// exists; saving a new session replaces whatever was there.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save stores the session, replacing any previous one.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session.User.ID == 0 {
		return errors.New("invalid session: user id required")
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
			return fmt.Errorf("failed to clear previous session: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session (id, user_id, username, nickname, avatar, theme, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			session.ID,
			session.User.ID,
			session.User.Username,
			session.User.Nickname,
			session.User.Avatar,
			session.User.Theme,
			session.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// Load returns the persisted session, or ErrSessionNotFound.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	var (
		session   models.Session
		avatar    sql.NullString
		theme     sql.NullString
		createdAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, nickname, avatar, theme, created_at
		FROM session
		LIMIT 1
	`).Scan(
		&session.ID,
		&session.User.ID,
		&session.User.Username,
		&session.User.Nickname,
		&avatar,
		&theme,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session.User.Avatar = avatar.String
	session.User.Theme = theme.String

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session created_at: %w", err)
	}
	session.CreatedAt = models.Timestamp{Time: parsed}

	return &session, nil
}

// Clear removes any persisted session. Clearing an empty table is not an
// error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UpdateNickname rewrites the stored nickname after a profile change.
func (r *SessionRepository) UpdateNickname(ctx context.Context, nickname string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE session SET nickname = ?`, nickname)
	if err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
