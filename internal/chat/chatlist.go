package chat

import (
	"context"
	"sync"
	"time"

	"github.com/convohq/convo/internal/logging"
	"github.com/convohq/convo/internal/models"
)

const defaultChatListInterval = 3 * time.Second

// ChatLister is the slice of the remote gateway the conversation list needs.
type ChatLister interface {
	ListChats(ctx context.Context, userID int64) ([]models.Chat, error)
}

// ChatListEvent is one refreshed conversation list.
type ChatListEvent struct {
	Chats []models.Chat
}

// ChatListSession polls the conversation list on the coarse cadence. It is
// independent of any open conversation: the two loops share no state and
// interleave freely.
type ChatListSession struct {
	userID int64
	lister ChatLister
	poller *Poller
	events chan ChatListEvent

	mu     sync.Mutex
	closed bool
	latest []models.Chat
}

// OpenChatList starts polling the user's conversations. The first refresh
// fires immediately.
func OpenChatList(lister ChatLister, userID int64, interval time.Duration) *ChatListSession {
	if interval <= 0 {
		interval = defaultChatListInterval
	}

	s := &ChatListSession{
		userID: userID,
		lister: lister,
		events: make(chan ChatListEvent, 1),
	}
	s.poller = StartPoller(interval, s.refreshOp)
	return s
}

// Events returns the refresh feed; stale undelivered lists are coalesced.
func (s *ChatListSession) Events() <-chan ChatListEvent {
	return s.events
}

// Chats returns the most recently fetched list.
func (s *ChatListSession) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Chat, len(s.latest))
	copy(out, s.latest)
	return out
}

// Close stops polling. No refresh runs after Close returns.
func (s *ChatListSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.poller.Stop()
	close(s.events)
}

func (s *ChatListSession) refreshOp(ctx context.Context) {
	chats, err := s.lister.ListChats(ctx, s.userID)
	if err != nil {
		if ctx.Err() == nil {
			clLog := logging.Component("chatlist")
			clLog.Debug().Err(err).Msg("poll fetch failed")
		}
		return
	}

	s.mu.Lock()
	s.latest = chats
	s.mu.Unlock()

	for {
		select {
		case s.events <- ChatListEvent{Chats: chats}:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
