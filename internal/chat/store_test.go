package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/convohq/convo/internal/models"
)

func msg(id int64, sender int64, content string) models.Message {
	return models.Message{ID: id, SenderID: sender, Content: content}
}

func ids(msgs []models.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestStoreReplaceAllIsVerbatim(t *testing.T) {
	store := NewStore(7)
	store.AppendLocal(msg(99, 1, "stale"))

	seq := []models.Message{msg(1, 2, "a"), msg(2, 3, "b"), msg(5, 2, "c")}
	store.ReplaceAll(seq)

	require.Equal(t, []int64{1, 2, 5}, ids(store.Snapshot()))

	// Mutating the input afterwards must not leak into the store.
	seq[0].Content = "mutated"
	require.Equal(t, "a", store.Snapshot()[0].Content)
}

func TestStoreReplaceAllEmpty(t *testing.T) {
	store := NewStore(7)
	store.ReplaceAll([]models.Message{msg(1, 1, "a")})
	store.ReplaceAll(nil)
	require.Zero(t, store.Len())
	_, ok := store.Tail()
	require.False(t, ok)
}

func TestStoreAppendRemoveLocal(t *testing.T) {
	store := NewStore(7)
	store.ReplaceAll([]models.Message{msg(1, 1, "a"), msg(2, 2, "b")})
	store.AppendLocal(msg(1756650000000, 1, "pending"))

	tail, ok := store.Tail()
	require.True(t, ok)
	require.Equal(t, "pending", tail.Content)

	removed, ok := store.RemoveLocal(1756650000000)
	require.True(t, ok)
	require.Equal(t, "pending", removed.Content)
	require.Equal(t, []int64{1, 2}, ids(store.Snapshot()))

	_, ok = store.RemoveLocal(1756650000000)
	require.False(t, ok)
}

func TestStoreRestoreLocalKeepsIDOrder(t *testing.T) {
	store := NewStore(7)
	store.ReplaceAll([]models.Message{msg(1, 1, "a"), msg(2, 2, "b"), msg(4, 1, "d")})

	removed, ok := store.RemoveLocal(2)
	require.True(t, ok)
	store.RestoreLocal(removed)
	require.Equal(t, []int64{1, 2, 4}, ids(store.Snapshot()))

	// Restoring past the tail appends.
	tail, _ := store.RemoveLocal(4)
	store.RestoreLocal(tail)
	require.Equal(t, []int64{1, 2, 4}, ids(store.Snapshot()))
}

func TestStorePatchLocal(t *testing.T) {
	store := NewStore(7)
	store.ReplaceAll([]models.Message{msg(1, 1, "before")})

	content := "after"
	edited := true
	now := models.Now()
	require.True(t, store.PatchLocal(1, Patch{Content: &content, Edited: &edited, UpdatedAt: &now}))

	got := store.Snapshot()[0]
	require.Equal(t, "after", got.Content)
	require.True(t, got.Edited)
	require.False(t, got.UpdatedAt.IsZero())

	require.False(t, store.PatchLocal(42, Patch{Content: &content}))
}
