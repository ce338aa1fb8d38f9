package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/convohq/convo/internal/logging"
	"github.com/convohq/convo/internal/models"
)

const (
	defaultMessageInterval = time.Second
	defaultAnchorThreshold = 3
)

// Remote is the capability set the sync engine needs from the chat service
// for one open conversation.
type Remote interface {
	ListMessages(ctx context.Context, chatID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID int64) error
	MessageWriter
}

// Event is one store change as seen by the presentation layer.
type Event struct {
	// Messages is the store snapshot after the change.
	Messages []models.Message

	// NewActivity is true when the change came from a reconciliation pass
	// that observed a strictly newer tail.
	NewActivity bool

	// ScrollToBottom is true when the anchor policy wants the viewport moved
	// to the tail. At most one scroll per reconciliation pass.
	ScrollToBottom bool
}

// ConversationConfig wires an open conversation.
type ConversationConfig struct {
	Remote          Remote
	ChatID          int64
	User            models.User
	PollInterval    time.Duration
	AnchorThreshold int
	Sounder         Sounder
	RollbackDelete  bool
}

// ConversationSession binds the store, reconciler, fine-grained poller,
// anchor policy and optimistic pipeline for one open conversation. Exactly
// one session exists per viewed conversation; switching conversations closes
// the old session before the new one starts polling.
type ConversationSession struct {
	chatID  int64
	user    models.User
	remote  Remote
	sounder Sounder
	log     zerolog.Logger

	store      *Store
	reconciler *Reconciler
	anchor     *Anchor
	pipeline   *Pipeline
	poller     *Poller

	events chan Event

	// reconcileMu serializes reconciliation passes: a poll tick and an
	// out-of-band refresh may race, and both must converge on the same
	// authoritative replace-all.
	reconcileMu sync.Mutex
	markedRead  bool

	mu     sync.Mutex
	closed bool
	bg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenConversation creates the session and starts its polling loop. The first
// refresh fires immediately.
func OpenConversation(cfg ConversationConfig) *ConversationSession {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultMessageInterval
	}
	threshold := cfg.AnchorThreshold
	if threshold <= 0 {
		threshold = defaultAnchorThreshold
	}
	sounder := cfg.Sounder
	if sounder == nil {
		sounder = NopSounder{}
	}

	store := NewStore(cfg.ChatID)
	anchor := NewAnchor(threshold)

	s := &ConversationSession{
		chatID:     cfg.ChatID,
		user:       cfg.User,
		remote:     cfg.Remote,
		sounder:    sounder,
		log:        logging.WithChat(cfg.ChatID),
		store:      store,
		reconciler: NewReconciler(store, Gate{LocalUserID: cfg.User.ID}),
		anchor:     anchor,
		events:     make(chan Event, 1),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.pipeline = NewPipeline(PipelineConfig{
		Writer:         cfg.Remote,
		Store:          store,
		Anchor:         anchor,
		User:           cfg.User,
		RollbackDelete: cfg.RollbackDelete,
		Refresh:        s.RefreshNow,
		Changed:        s.emitLocalChange,
	})

	s.poller = StartPoller(interval, s.refreshOp)
	return s
}

// ChatID returns the conversation this session serves.
func (s *ConversationSession) ChatID() int64 {
	return s.chatID
}

// Events returns the change feed. The channel carries the latest snapshot;
// intermediate states may be coalesced. It is closed by Close.
func (s *ConversationSession) Events() <-chan Event {
	return s.events
}

// Anchor exposes the scroll policy so the presentation can report viewport
// movement.
func (s *ConversationSession) Anchor() *Anchor {
	return s.anchor
}

// Messages returns the current store snapshot.
func (s *ConversationSession) Messages() []models.Message {
	return s.store.Snapshot()
}

// Send runs the optimistic send pipeline. See Pipeline.Send.
func (s *ConversationSession) Send(ctx context.Context, input ComposeInput) (*ComposeInput, error) {
	return s.pipeline.Send(ctx, input)
}

// Edit runs the optimistic edit pipeline. See Pipeline.Edit.
func (s *ConversationSession) Edit(ctx context.Context, messageID int64, content string) error {
	return s.pipeline.Edit(ctx, messageID, content)
}

// Delete runs the optimistic delete pipeline. See Pipeline.Delete.
func (s *ConversationSession) Delete(ctx context.Context, messageID int64) error {
	return s.pipeline.Delete(ctx, messageID)
}

// RefreshNow triggers an immediate out-of-band reconciliation pass, bounding
// the latency between a confirmed write and its authoritative echo.
func (s *ConversationSession) RefreshNow() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bg.Done()
		s.refreshOp(s.ctx)
	}()
}

// Close stops polling and releases the session. After Close returns no
// further refresh runs and the event channel is closed. The store is
// discarded with the session; nothing survives across conversations.
func (s *ConversationSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.poller.Stop()
	s.cancel()
	s.bg.Wait()
	close(s.events)
}

// refreshOp is one reconciliation pass: full reload, replace-all merge,
// policy evaluation. A fetch failure is transient by design: it is logged
// and the next tick retries.
func (s *ConversationSession) refreshOp(ctx context.Context) {
	seq, err := s.remote.ListMessages(ctx, s.chatID)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Debug().Err(err).Msg("poll fetch failed")
		}
		return
	}

	s.reconcileMu.Lock()
	outcome := s.reconciler.Apply(seq)
	scroll := s.anchor.ShouldScroll(outcome.NewActivity)
	snapshot := s.store.Snapshot()
	markRead := s.maybeMarkReadLocked(outcome)
	s.reconcileMu.Unlock()

	if outcome.Notify {
		s.sounder.Play(outcome.Tail)
	}
	if markRead != 0 {
		if err := s.remote.MarkRead(ctx, markRead); err != nil && ctx.Err() == nil {
			s.log.Debug().Int64("message_id", markRead).Err(err).Msg("mark read failed")
		}
	}

	s.emit(Event{
		Messages:       snapshot,
		NewActivity:    outcome.NewActivity,
		ScrollToBottom: scroll,
	})
}

// maybeMarkReadLocked picks the tail message to acknowledge on the first
// successful reconcile: a counterpart message that is still unread.
func (s *ConversationSession) maybeMarkReadLocked(outcome Outcome) int64 {
	if s.markedRead || !outcome.HasTail {
		return 0
	}
	s.markedRead = true
	tail := outcome.Tail
	if tail.SenderID == s.user.ID || tail.Read || tail.System {
		return 0
	}
	return tail.ID
}

// emitLocalChange publishes the store right after an optimistic mutation, so
// a placeholder or removal reaches the screen before the remote write (and
// the reconciliation pass that confirms it) completes.
func (s *ConversationSession) emitLocalChange() {
	// Holding mu orders this emit before Close can shut the channel.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.emit(Event{
		Messages:       s.store.Snapshot(),
		ScrollToBottom: s.anchor.Following(),
	})
}

// emit delivers the latest event, displacing a stale undelivered one rather
// than blocking a poll goroutine on a slow reader.
func (s *ConversationSession) emit(ev Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
