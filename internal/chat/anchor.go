package chat

import "sync"

// Anchor decides whether the conversation viewport should auto-follow newly
// arriving content. Follow-tail starts engaged so a freshly opened
// conversation jumps straight to its newest message; it disengages when the
// reader scrolls further than the threshold from the bottom and re-engages
// when they come back, or whenever the local user sends something.
type Anchor struct {
	mu        sync.Mutex
	follow    bool
	threshold int
}

// NewAnchor creates an anchor with the given near-bottom threshold, measured
// in whatever distance unit the presentation reports (rows for the TUI).
func NewAnchor(threshold int) *Anchor {
	return &Anchor{follow: true, threshold: threshold}
}

// HandleScroll records the reader's distance from the bottom of the content.
func (a *Anchor) HandleScroll(distanceFromBottom int) {
	a.mu.Lock()
	a.follow = distanceFromBottom <= a.threshold
	a.mu.Unlock()
}

// NoteLocalSend re-engages follow-tail: a sender always wants to see their
// own message land.
func (a *Anchor) NoteLocalSend() {
	a.mu.Lock()
	a.follow = true
	a.mu.Unlock()
}

// Following reports whether follow-tail is engaged.
func (a *Anchor) Following() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.follow
}

// ShouldScroll decides whether a store change warrants a scroll-to-bottom:
// only a new-activity reconciliation pass while follow-tail is engaged moves
// the viewport. A reader deep in history is never yanked to the bottom by
// background activity.
func (a *Anchor) ShouldScroll(newActivity bool) bool {
	if !newActivity {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.follow
}
