// Package chattui is the terminal client: a chat list backed by the coarse
// polling loop and a conversation view backed by the fine-grained one, with
// compose, edit and delete wired through the optimistic pipeline.
package chattui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/convohq/convo/internal/chat"
	"github.com/convohq/convo/internal/chattui/styles"
	"github.com/convohq/convo/internal/config"
	"github.com/convohq/convo/internal/db"
	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/models"
)

type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

type ViewID string

const (
	ViewChats        ViewID = "chats"
	ViewConversation ViewID = "conversation"
)

// Config wires the TUI.
type Config struct {
	User           models.User
	Client         *gateway.Client
	DB             *db.DB
	Theme          string
	Sync           config.SyncConfig
	ShowTimestamps bool
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme Theme) string
}

type Model struct {
	user     models.User
	client   *gateway.Client
	manager  *chat.Manager
	chatList *chat.ChatListSession
	drafts   *db.DraftRepository
	markers  *db.MarkerRepository

	theme          Theme
	sync           config.SyncConfig
	showTimestamps bool

	width    int
	height   int
	showHelp bool
	status   string

	viewStack []ViewID
	views     map[ViewID]viewModel
}

type pushViewMsg struct {
	id ViewID
}

type popViewMsg struct{}

type openChatMsg struct {
	chat models.Chat
}

type statusMsg struct {
	text string
}

func pushViewCmd(id ViewID) tea.Cmd {
	return func() tea.Msg {
		return pushViewMsg{id: id}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func openChatCmd(c models.Chat) tea.Cmd {
	return func() tea.Msg {
		return openChatMsg{chat: c}
	}
}

func statusCmd(format string, args ...interface{}) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf(format, args...)}
	}
}

func NewModel(cfg Config) (*Model, error) {
	theme := Theme(strings.TrimSpace(cfg.Theme))
	if theme == "" {
		theme = ThemeDefault
	}
	if _, ok := styles.Themes[string(theme)]; !ok {
		return nil, fmt.Errorf("invalid theme %q", cfg.Theme)
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if cfg.User.ID == 0 {
		return nil, fmt.Errorf("a logged-in user is required")
	}

	m := &Model{
		user:           cfg.User,
		client:         cfg.Client,
		manager:        chat.NewManager(),
		theme:          theme,
		sync:           cfg.Sync,
		showTimestamps: cfg.ShowTimestamps,
		viewStack:      []ViewID{ViewChats},
		views:          make(map[ViewID]viewModel),
	}
	if cfg.DB != nil {
		m.drafts = db.NewDraftRepository(cfg.DB)
		m.markers = db.NewMarkerRepository(cfg.DB)
	}

	m.chatList = chat.OpenChatList(cfg.Client, cfg.User.ID, cfg.Sync.ChatPollInterval)
	m.initViews()
	return m, nil
}

// Run starts the TUI and blocks until quit.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Close() {
	for _, view := range m.views {
		if closer, ok := view.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	m.manager.Close()
	m.chatList.Close()
}

func (m *Model) Init() tea.Cmd {
	if view := m.activeView(); view != nil {
		return view.Init()
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case statusMsg:
		m.status = typed.text
		return m, nil
	case openChatMsg:
		m.status = ""
		if view := m.views[ViewConversation]; view != nil {
			if opener, ok := view.(interface {
				Open(models.Chat) tea.Cmd
			}); ok {
				m.pushView(ViewConversation)
				return m, opener.Open(typed.chat)
			}
		}
		return m, nil
	case pushViewMsg:
		m.pushView(typed.id)
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case popViewMsg:
		m.popView()
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	if m.showHelp {
		body = m.renderHelp(m.width, contentHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// The conversation view owns almost every key while composing; only the
	// hard-quit chord stays global there.
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.activeViewID() == ViewConversation {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	}
	return nil, false
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewChats
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" {
		return
	}
	if _, ok := m.views[id]; !ok {
		return
	}
	if m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *Model) initViews() {
	m.views[ViewChats] = newChatsView(m.chatList, m.client, m.user)
	m.views[ViewConversation] = newConversationView(conversationDeps{
		remote:         m.client,
		manager:        m.manager,
		user:           m.user,
		drafts:         m.drafts,
		markers:        m.markers,
		sync:           m.sync,
		showTimestamps: m.showTimestamps,
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func formatClock(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("15:04")
}

func formatDay(t time.Time) string {
	return t.Local().Format("Mon 2 Jan")
}
