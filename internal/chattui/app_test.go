package chattui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/convohq/convo/internal/config"
	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/models"
)

func testModel(t *testing.T) *Model {
	t.Helper()

	m, err := NewModel(Config{
		User:   models.User{ID: 3, Username: "mira", Nickname: "Mira"},
		Client: gateway.NewClient(gateway.Config{}),
		Sync: config.SyncConfig{
			MessagePollInterval: time.Hour,
			ChatPollInterval:    time.Hour,
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestNewModelValidatesInputs(t *testing.T) {
	_, err := NewModel(Config{
		User:   models.User{ID: 3},
		Client: gateway.NewClient(gateway.Config{}),
		Theme:  "neon",
	})
	require.Error(t, err)

	_, err = NewModel(Config{User: models.User{ID: 3}})
	require.Error(t, err)

	_, err = NewModel(Config{Client: gateway.NewClient(gateway.Config{})})
	require.Error(t, err)
}

func TestViewStackPushPop(t *testing.T) {
	m := testModel(t)

	require.Equal(t, ViewChats, m.activeViewID())

	m.pushView(ViewConversation)
	require.Equal(t, ViewConversation, m.activeViewID())

	// Pushing the active view again must not grow the stack.
	m.pushView(ViewConversation)
	m.popView()
	require.Equal(t, ViewChats, m.activeViewID())

	// The root view never pops away.
	m.popView()
	require.Equal(t, ViewChats, m.activeViewID())
}

func TestPushUnknownViewIsIgnored(t *testing.T) {
	m := testModel(t)
	m.pushView(ViewID("bogus"))
	require.Equal(t, ViewChats, m.activeViewID())
}

func TestGlobalKeys(t *testing.T) {
	m := testModel(t)

	cmd, handled := m.handleGlobalKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, handled)
	require.NotNil(t, cmd)

	_, handled = m.handleGlobalKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.True(t, handled)

	// Inside a conversation plain letters belong to the compose input.
	m.pushView(ViewConversation)
	_, handled = m.handleGlobalKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.False(t, handled)

	_, handled = m.handleGlobalKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, handled)
}

func TestWindowSizePropagates(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, ok := updated.(*Model)
	require.True(t, ok)
	require.Equal(t, 120, model.width)
	require.Equal(t, 40, model.height)
}
