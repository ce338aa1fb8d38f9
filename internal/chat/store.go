// Package chat implements the synchronization and reconciliation engine: the
// message store for the open conversation, the polling loops that refresh it,
// the replace-all reconciler, the optimistic send/edit/delete pipeline, and
// the scroll-anchor and notification policies driven by reconciliation.
package chat

import (
	"sync"

	"github.com/convohq/convo/internal/models"
)

// Store holds the ordered message sequence for exactly one open conversation.
// It preserves whatever order it is given and never sorts; sequencing
// correctness belongs to the Reconciler. A Store is created when a
// conversation is opened and discarded when it closes.
type Store struct {
	chatID int64

	mu   sync.Mutex
	msgs []models.Message
}

// NewStore creates an empty store bound to one conversation.
func NewStore(chatID int64) *Store {
	return &Store{chatID: chatID}
}

// ChatID returns the conversation this store belongs to.
func (s *Store) ChatID() int64 {
	return s.chatID
}

// ReplaceAll swaps the entire sequence for the given one.
func (s *Store) ReplaceAll(seq []models.Message) {
	next := make([]models.Message, len(seq))
	copy(next, seq)

	s.mu.Lock()
	s.msgs = next
	s.mu.Unlock()
}

// AppendLocal adds a locally originated message at the tail.
func (s *Store) AppendLocal(msg models.Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

// RemoveLocal deletes the message with the given id. It returns the removed
// message so a caller applying a rollback policy can restore it.
func (s *Store) RemoveLocal(id int64) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.msgs {
		if msg.ID == id {
			removed := msg
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return removed, true
		}
	}
	return models.Message{}, false
}

// RestoreLocal reinserts a previously removed message at its id-ordered
// position. Used only by the delete rollback policy.
func (s *Store) RestoreLocal(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := len(s.msgs)
	for i, existing := range s.msgs {
		if existing.ID > msg.ID {
			at = i
			break
		}
	}
	s.msgs = append(s.msgs, models.Message{})
	copy(s.msgs[at+1:], s.msgs[at:])
	s.msgs[at] = msg
}

// Patch is a partial local update to a stored message.
type Patch struct {
	Content   *string
	Edited    *bool
	Read      *bool
	UpdatedAt *models.Timestamp
}

// PatchLocal applies a partial update to the message with the given id.
func (s *Store) PatchLocal(id int64, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.msgs {
		if s.msgs[i].ID != id {
			continue
		}
		if patch.Content != nil {
			s.msgs[i].Content = *patch.Content
		}
		if patch.Edited != nil {
			s.msgs[i].Edited = *patch.Edited
		}
		if patch.Read != nil {
			s.msgs[i].Read = *patch.Read
		}
		if patch.UpdatedAt != nil {
			s.msgs[i].UpdatedAt = *patch.UpdatedAt
		}
		return true
	}
	return false
}

// Tail returns the last message in the sequence.
func (s *Store) Tail() (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.msgs) == 0 {
		return models.Message{}, false
	}
	return s.msgs[len(s.msgs)-1], true
}

// Snapshot returns a copy of the current sequence.
func (s *Store) Snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}
