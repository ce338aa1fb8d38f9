package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/logging"
	"github.com/convohq/convo/internal/models"
)

// ErrSendInFlight is returned when a send or edit is requested while another
// write from the same compose surface has not finished. Requests are rejected,
// not queued, so duplicate placeholders cannot race each other.
var ErrSendInFlight = errors.New("another send is in flight")

// ComposeInput is the staged compose state: text plus an optional inlined
// photo attachment. The attachment is opaque to the engine.
type ComposeInput struct {
	Text         string
	PhotoURL     string
	PhotoCaption string
}

// Empty reports whether there is nothing to send.
func (in ComposeInput) Empty() bool {
	return in.Text == "" && in.PhotoURL == ""
}

// MessageWriter is the slice of the remote gateway the pipeline writes
// through.
type MessageWriter interface {
	SendMessage(ctx context.Context, req gateway.SendMessageRequest) (gateway.SendAck, error)
	EditMessage(ctx context.Context, messageID int64, content string) error
	DeleteMessage(ctx context.Context, messageID int64) error
}

// Pipeline runs the optimistic send, edit and delete flows for one open
// conversation. A send appends a placeholder synchronously so the message is
// visible at once, then attempts the remote write; the next reconciliation
// pass either confirms the placeholder away or the pipeline rolls it back and
// hands the original input back to the compose surface.
type Pipeline struct {
	writer  MessageWriter
	store   *Store
	anchor  *Anchor
	user    models.User
	refresh func()
	changed func()

	// rollbackDelete restores an optimistically removed message when the
	// remote delete fails. Off by default: the reference behavior lets the
	// local removal stand, and the next poll resurrects the tombstone
	// anyway.
	rollbackDelete bool

	mu       sync.Mutex
	inFlight bool
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Writer         MessageWriter
	Store          *Store
	Anchor         *Anchor
	User           models.User
	RollbackDelete bool

	// Refresh triggers an immediate out-of-band reconciliation pass. Called
	// after every successful write so confirmation does not wait for the
	// next poll tick.
	Refresh func()

	// Changed is called after every local store mutation, before any remote
	// write completes, so a placeholder or removal is presentable at once.
	Changed func()
}

// NewPipeline creates a pipeline for one conversation.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	refresh := cfg.Refresh
	if refresh == nil {
		refresh = func() {}
	}
	changed := cfg.Changed
	if changed == nil {
		changed = func() {}
	}
	return &Pipeline{
		writer:         cfg.Writer,
		store:          cfg.Store,
		anchor:         cfg.Anchor,
		user:           cfg.User,
		refresh:        refresh,
		changed:        changed,
		rollbackDelete: cfg.RollbackDelete,
	}
}

// placeholderID derives a temporary id from the millisecond clock. Server ids
// are small serials, so the two spaces cannot collide during a placeholder's
// lifetime; the Pending flag tells them apart regardless.
func placeholderID() int64 {
	return time.Now().UnixMilli()
}

// Send appends a placeholder and attempts the remote write. On failure the
// placeholder is removed and the original input is returned so the compose
// surface can restore it; on success the restored input is nil and an
// immediate reconciliation pass has been triggered.
func (p *Pipeline) Send(ctx context.Context, input ComposeInput) (*ComposeInput, error) {
	if input.Empty() {
		return nil, nil
	}
	if !p.acquire() {
		return nil, ErrSendInFlight
	}
	defer p.release()

	now := models.Now()
	placeholder := models.Message{
		ID:             placeholderID(),
		SenderID:       p.user.ID,
		SenderNickname: p.user.Nickname,
		SenderUsername: p.user.Username,
		Content:        input.Text,
		PhotoURL:       input.PhotoURL,
		PhotoCaption:   input.PhotoCaption,
		CreatedAt:      now,
		UpdatedAt:      now,
		Pending:        true,
	}

	p.store.AppendLocal(placeholder)
	if p.anchor != nil {
		p.anchor.NoteLocalSend()
	}
	p.changed()

	_, err := p.writer.SendMessage(ctx, gateway.SendMessageRequest{
		ChatID:       p.store.ChatID(),
		SenderID:     p.user.ID,
		Content:      input.Text,
		PhotoURL:     input.PhotoURL,
		PhotoCaption: input.PhotoCaption,
	})
	if err != nil {
		p.store.RemoveLocal(placeholder.ID)
		p.changed()
		restored := input
		return &restored, fmt.Errorf("send failed: %w", err)
	}

	p.refresh()
	return nil, nil
}

// Edit rewrites a message's content. The local copy is patched only after the
// remote write succeeds; a failed write leaves prior state untouched.
func (p *Pipeline) Edit(ctx context.Context, messageID int64, content string) error {
	if !p.acquire() {
		return ErrSendInFlight
	}
	defer p.release()

	if err := p.writer.EditMessage(ctx, messageID, content); err != nil {
		return fmt.Errorf("edit failed: %w", err)
	}

	edited := true
	now := models.Now()
	p.store.PatchLocal(messageID, Patch{
		Content:   &content,
		Edited:    &edited,
		UpdatedAt: &now,
	})
	p.changed()

	p.refresh()
	return nil
}

// Delete removes a message locally at once and issues the remote delete.
// Whether a failed remote delete restores the local copy is a policy point;
// the default leaves the removal standing.
func (p *Pipeline) Delete(ctx context.Context, messageID int64) error {
	removed, had := p.store.RemoveLocal(messageID)
	p.changed()

	err := p.writer.DeleteMessage(ctx, messageID)
	if err != nil {
		if p.rollbackDelete && had {
			p.store.RestoreLocal(removed)
			p.changed()
		} else {
			plLog := logging.Component("pipeline")
			plLog.Warn().
				Int64("message_id", messageID).
				Err(err).
				Msg("remote delete failed, local removal stands")
		}
		return fmt.Errorf("delete failed: %w", err)
	}

	p.refresh()
	return nil
}

func (p *Pipeline) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}
