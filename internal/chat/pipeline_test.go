package chat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/convohq/convo/internal/models"
)

func newTestPipeline(t *testing.T, remote *fakeRemote, rollbackDelete bool) (*Pipeline, *Store, *Reconciler, *atomic.Int32) {
	t.Helper()

	store := NewStore(7)
	rec := NewReconciler(store, Gate{LocalUserID: localUser})
	var refreshes atomic.Int32

	p := NewPipeline(PipelineConfig{
		Writer:         remote,
		Store:          store,
		Anchor:         NewAnchor(100),
		User:           models.User{ID: localUser, Username: "mira", Nickname: "Mira"},
		RollbackDelete: rollbackDelete,
		Refresh:        func() { refreshes.Add(1) },
	})
	return p, store, rec, &refreshes
}

func TestSendOptimisticRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	remote.setSequence(7, []models.Message{msg(1, 2, "hi")})

	p, store, rec, refreshes := newTestPipeline(t, remote, false)
	rec.Apply(remote.seqs[7])

	// While the write is in flight the placeholder must already be visible,
	// carrying the text and the local user as sender.
	remote.onSend = func() {
		tail, ok := store.Tail()
		require.True(t, ok)
		require.True(t, tail.Pending)
		require.Equal(t, "hello", tail.Content)
		require.Equal(t, localUser, tail.SenderID)
	}

	restored, err := p.Send(context.Background(), ComposeInput{Text: "hello"})
	require.NoError(t, err)
	require.Nil(t, restored)
	require.Equal(t, int32(1), refreshes.Load())

	// The out-of-band reconciliation pass replaces the placeholder with the
	// authoritative copy: exactly one "hello", server-issued id, not pending.
	seq, listErr := remote.ListMessages(context.Background(), 7)
	require.NoError(t, listErr)
	rec.Apply(seq)

	var hellos []models.Message
	for _, m := range store.Snapshot() {
		if m.Content == "hello" {
			hellos = append(hellos, m)
		}
	}
	require.Len(t, hellos, 1)
	require.False(t, hellos[0].Pending)
	require.Less(t, hellos[0].ID, int64(100000))
}

func TestSendRollbackRestoresInput(t *testing.T) {
	remote := newFakeRemote()
	remote.sendErr = errors.New("boom")

	p, store, _, refreshes := newTestPipeline(t, remote, false)

	input := ComposeInput{Text: "hello", PhotoURL: "data:image/png;base64,xx", PhotoCaption: "cap"}
	restored, err := p.Send(context.Background(), input)
	require.Error(t, err)
	require.NotNil(t, restored)
	require.Equal(t, input, *restored)

	// Placeholder is gone and no refresh was triggered.
	require.Zero(t, store.Len())
	require.Zero(t, refreshes.Load())
}

func TestSendRejectsConcurrentSends(t *testing.T) {
	remote := newFakeRemote()
	remote.sendGate = make(chan struct{})

	p, _, _, _ := newTestPipeline(t, remote, false)

	firstDone := make(chan error, 1)
	go func() {
		_, err := p.Send(context.Background(), ComposeInput{Text: "first"})
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		return remote.sendGate != nil && len(remote.sentRequests()) == 0 && pipelineBusy(p)
	}, time.Second, time.Millisecond)

	_, err := p.Send(context.Background(), ComposeInput{Text: "second"})
	require.ErrorIs(t, err, ErrSendInFlight)

	close(remote.sendGate)
	require.NoError(t, <-firstDone)
}

func pipelineBusy(p *Pipeline) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func TestSendEmptyInputIsNoop(t *testing.T) {
	remote := newFakeRemote()
	p, store, _, _ := newTestPipeline(t, remote, false)

	restored, err := p.Send(context.Background(), ComposeInput{})
	require.NoError(t, err)
	require.Nil(t, restored)
	require.Zero(t, store.Len())
	require.Empty(t, remote.sentRequests())
}

func TestEditPatchesOnlyAfterSuccess(t *testing.T) {
	remote := newFakeRemote()
	p, store, rec, refreshes := newTestPipeline(t, remote, false)
	rec.Apply([]models.Message{msg(5, localUser, "tpyo")})

	require.NoError(t, p.Edit(context.Background(), 5, "typo"))
	got := store.Snapshot()[0]
	require.Equal(t, "typo", got.Content)
	require.True(t, got.Edited)
	require.Equal(t, int32(1), refreshes.Load())
}

func TestEditFailureLeavesStateUntouched(t *testing.T) {
	remote := newFakeRemote()
	remote.editErr = errors.New("boom")

	p, store, rec, refreshes := newTestPipeline(t, remote, false)
	rec.Apply([]models.Message{msg(5, localUser, "tpyo")})

	require.Error(t, p.Edit(context.Background(), 5, "typo"))
	got := store.Snapshot()[0]
	require.Equal(t, "tpyo", got.Content)
	require.False(t, got.Edited)
	require.Zero(t, refreshes.Load())
}

func TestDeleteRemovesLocallyEvenOnFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.deleteErr = errors.New("boom")

	p, store, rec, _ := newTestPipeline(t, remote, false)
	rec.Apply([]models.Message{msg(5, localUser, "gone"), msg(6, 2, "stays")})

	require.Error(t, p.Delete(context.Background(), 5))
	require.Equal(t, []int64{6}, ids(store.Snapshot()))
}

func TestDeleteRollbackPolicyRestores(t *testing.T) {
	remote := newFakeRemote()
	remote.deleteErr = errors.New("boom")

	p, store, rec, _ := newTestPipeline(t, remote, true)
	rec.Apply([]models.Message{msg(5, localUser, "kept"), msg(6, 2, "tail")})

	require.Error(t, p.Delete(context.Background(), 5))
	require.Equal(t, []int64{5, 6}, ids(store.Snapshot()))
}

func TestDeleteSuccessTriggersRefresh(t *testing.T) {
	remote := newFakeRemote()
	remote.setSequence(7, []models.Message{msg(5, localUser, "gone")})

	p, store, rec, refreshes := newTestPipeline(t, remote, false)
	rec.Apply(remote.seqs[7])

	require.NoError(t, p.Delete(context.Background(), 5))
	require.Zero(t, store.Len())
	require.Equal(t, int32(1), refreshes.Load())
}
