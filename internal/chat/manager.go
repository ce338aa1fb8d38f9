package chat

import "sync"

// Manager enforces the one-active-session invariant: at most one fine-grained
// polling loop exists at a time, and switching conversations fully stops the
// previous loop before the next one starts. Without this, the old chat's
// ticks keep overwriting the store after the view has moved on.
type Manager struct {
	mu      sync.Mutex
	current *ConversationSession
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Open closes the current session, if any, then opens a new one. The old
// poller is fully stopped before the new conversation fetches anything.
func (m *Manager) Open(cfg ConversationConfig) *ConversationSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
	}
	m.current = OpenConversation(cfg)
	return m.current
}

// Current returns the open session, or nil.
func (m *Manager) Current() *ConversationSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close stops the open session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}
