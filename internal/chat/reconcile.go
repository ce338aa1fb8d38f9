package chat

import (
	"github.com/convohq/convo/internal/models"
)

// Outcome is the result of one reconciliation pass.
type Outcome struct {
	// NewActivity is true when the fetched tail id strictly exceeds the
	// highest id previously observed for this conversation.
	NewActivity bool

	// Tail is the last message of the fetched sequence; HasTail is false
	// for an empty fetch.
	Tail    models.Message
	HasTail bool

	// Notify is true when NewActivity holds and the notification gate
	// approves the tail message.
	Notify bool
}

// Reconciler merges freshly fetched message sequences into a Store. The merge
// is an authoritative replace-all: after every pass the store content equals
// the fetched sequence verbatim, so server-side edits and deletes become
// visible without any diffing, and local placeholders are dropped the moment
// the server confirms them.
type Reconciler struct {
	store *Store
	gate  Gate

	// cursor is the highest tail id observed so far; it only detects new
	// activity, never drives incremental fetches.
	cursor int64
}

// NewReconciler creates a reconciler for one conversation store.
func NewReconciler(store *Store, gate Gate) *Reconciler {
	return &Reconciler{store: store, gate: gate}
}

// Apply runs one reconciliation pass. An empty sequence empties the store;
// a tail id at or below the cursor still refreshes content but raises no
// attention cues. A tail id below the cursor would violate the server's
// non-decreasing history contract, so the server stays authoritative for
// content while the cursor keeps its high-water mark.
func (r *Reconciler) Apply(seq []models.Message) Outcome {
	var outcome Outcome

	var tailID int64
	if len(seq) > 0 {
		outcome.Tail = seq[len(seq)-1]
		outcome.HasTail = true
		tailID = outcome.Tail.ID
	}

	outcome.NewActivity = tailID > r.cursor
	if outcome.NewActivity {
		r.cursor = tailID
		outcome.Notify = r.gate.ShouldNotify(outcome.Tail)
	}

	r.store.ReplaceAll(seq)
	return outcome
}

// Cursor returns the highest tail id observed so far.
func (r *Reconciler) Cursor() int64 {
	return r.cursor
}
