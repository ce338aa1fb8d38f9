package chattui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/convohq/convo/internal/chat"
	"github.com/convohq/convo/internal/config"
	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/models"
)

func testConversationView() *conversationView {
	v := newConversationView(conversationDeps{
		user:    models.User{ID: 3, Username: "mira", Nickname: "Mira"},
		manager: chat.NewManager(),
	})
	v.chat = models.Chat{ID: 7, Name: "Lev"}
	return v
}

// countingRemote satisfies conversationRemote and records fetch traffic.
type countingRemote struct {
	mu    sync.Mutex
	lists int
}

func (f *countingRemote) ListMessages(ctx context.Context, chatID int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return nil, nil
}

func (f *countingRemote) MarkRead(ctx context.Context, messageID int64) error { return nil }

func (f *countingRemote) SendMessage(ctx context.Context, req gateway.SendMessageRequest) (gateway.SendAck, error) {
	return gateway.SendAck{}, nil
}

func (f *countingRemote) EditMessage(ctx context.Context, messageID int64, content string) error {
	return nil
}

func (f *countingRemote) DeleteMessage(ctx context.Context, messageID int64) error { return nil }

func (f *countingRemote) ListParticipants(ctx context.Context, chatID int64) ([]models.Participant, error) {
	return nil, nil
}

func (f *countingRemote) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func convMsg(id, sender int64, content string) models.Message {
	return models.Message{
		ID:             id,
		SenderID:       sender,
		SenderNickname: "someone",
		Content:        content,
	}
}

func TestMessageBodyVariants(t *testing.T) {
	v := testConversationView()

	require.Equal(t, "hello", v.messageBody(models.Message{Content: "hello"}))
	require.Equal(t, models.DeletedSentinel, v.messageBody(models.Message{Deleted: true, Content: ""}))
	require.Equal(t, "[photo]", v.messageBody(models.Message{PhotoURL: "data:image/png;base64,xx"}))
	require.Equal(t, "[photo] look", v.messageBody(models.Message{PhotoURL: "data:image/png;base64,xx", PhotoCaption: "look"}))
}

func TestRenderShowsNewMessagesDivider(t *testing.T) {
	v := testConversationView()
	v.openMarker = 5
	v.messages = []models.Message{
		convMsg(4, 2, "old"),
		convMsg(5, 2, "last seen"),
		convMsg(6, 2, "fresh"),
	}

	out := v.View(60, 20, ThemeDefault)
	require.Contains(t, out, " new ")
	require.Contains(t, out, "fresh")
}

func TestRenderNoDividerWithoutMarker(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{convMsg(6, 2, "fresh")}

	out := v.View(60, 20, ThemeDefault)
	require.NotContains(t, out, " new ")
}

func TestRenderTombstone(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{
		{ID: 5, SenderID: 2, SenderNickname: "Lev", Deleted: true},
	}

	out := v.View(60, 20, ThemeDefault)
	require.Contains(t, out, models.DeletedSentinel)
}

func TestRenderPendingMarker(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{
		{ID: 1756650000000, SenderID: 3, SenderNickname: "Mira", Content: "hi", Pending: true},
	}

	out := v.View(60, 20, ThemeDefault)
	require.Contains(t, out, "sending")
}

func TestComposeTyping(t *testing.T) {
	v := testConversationView()

	for _, r := range "hey" {
		v.handleComposeKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	require.Equal(t, "hey", v.compose.text)

	v.handleComposeKey(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "he", v.compose.text)
}

func TestSubmitEmptyComposeIsNoop(t *testing.T) {
	v := testConversationView()
	v.compose.text = "   "
	require.Nil(t, v.submitCompose())
}

func TestBeginEditRequiresOwnMessage(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{
		convMsg(1, 2, "theirs"),
		convMsg(2, 3, "mine"),
	}

	v.focus = focusHistory
	v.selected = 0
	require.Nil(t, v.beginEdit())
	require.Zero(t, v.compose.editingID)
	require.NotEmpty(t, v.status)

	v.focus = focusHistory
	v.selected = 1
	require.Nil(t, v.beginEdit())
	require.Equal(t, int64(2), v.compose.editingID)
	require.Equal(t, "mine", v.compose.text)
	require.Equal(t, focusCompose, v.focus)
}

func TestEditRejectsDeletedAndPhoto(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{
		{ID: 1, SenderID: 3, Deleted: true},
		{ID: 2, SenderID: 3, PhotoURL: "data:image/png;base64,xx"},
	}

	v.selected = 0
	require.Nil(t, v.beginEdit())
	require.Zero(t, v.compose.editingID)

	v.selected = 1
	require.Nil(t, v.beginEdit())
	require.Zero(t, v.compose.editingID)
}

func TestEscCancelsEditAndKeepsConversation(t *testing.T) {
	v := testConversationView()
	v.compose.editingID = 5
	v.compose.text = "rewrite"

	cmd := v.handleComposeKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, cmd)
	require.Zero(t, v.compose.editingID)
	require.Empty(t, v.compose.text)
}

func TestEscFromComposeLeavesConversation(t *testing.T) {
	v := testConversationView()

	cmd := v.handleComposeKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := cmd().(popViewMsg)
	require.True(t, ok)
}

func TestEscClosesSessionAndStopsPolling(t *testing.T) {
	remote := &countingRemote{}
	v := newConversationView(conversationDeps{
		remote:  remote,
		manager: chat.NewManager(),
		user:    models.User{ID: 3, Username: "mira"},
		sync:    config.SyncConfig{MessagePollInterval: 5 * time.Millisecond},
	})
	require.NotNil(t, v.Open(models.Chat{ID: 7, Name: "Lev"}))

	require.Eventually(t, func() bool { return remote.listCount() >= 2 },
		time.Second, time.Millisecond)

	cmd := v.handleComposeKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := cmd().(popViewMsg)
	require.True(t, ok)
	require.Nil(t, v.session)

	// The abandoned conversation must not keep hitting the remote.
	after := remote.listCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, remote.listCount())
}

func TestHistorySelectionBounds(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{convMsg(1, 2, "a"), convMsg(2, 2, "b")}

	v.handleComposeKey(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusHistory, v.focus)
	require.Equal(t, 1, v.selected)

	v.moveSelection(-5)
	require.Equal(t, 0, v.selected)
	v.moveSelection(9)
	require.Equal(t, 1, v.selected)
}

func TestStaleSessionEventIsDropped(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{convMsg(1, 2, "current")}

	stale := chat.OpenConversation(chat.ConversationConfig{
		Remote:       gateway.NewClient(gateway.Config{}),
		ChatID:       1,
		User:         models.User{ID: 3},
		PollInterval: time.Hour,
	})
	defer stale.Close()

	// An event tagged with a replaced session must not repaint the view and
	// must not re-arm its wait command.
	cmd := v.applyEvent(conversationEventMsg{
		session: stale,
		event:   chat.Event{Messages: []models.Message{convMsg(9, 2, "stale")}},
		ok:      true,
	})
	require.Nil(t, cmd)
	require.Equal(t, "current", v.messages[0].Content)
}

func TestScrollOffsetClampedToHistory(t *testing.T) {
	v := testConversationView()
	v.messages = []models.Message{convMsg(1, 2, "a")}
	v.offset = 9999

	out := v.View(60, 20, ThemeDefault)
	require.Contains(t, out, "a")
	require.LessOrEqual(t, v.offset, 20)
}
