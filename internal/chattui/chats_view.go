package chattui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/convohq/convo/internal/chat"
	"github.com/convohq/convo/internal/chattui/styles"
	"github.com/convohq/convo/internal/models"
)

const newChatTimeout = 10 * time.Second

type chatListMsg struct {
	chats []models.Chat
	ok    bool
}

type chatCreatedMsg struct {
	chatID   int64
	existing bool
	err      error
}

// ChatCreator is the slice of the gateway the new-chat prompt needs.
type ChatCreator interface {
	CreatePersonalChat(ctx context.Context, userID int64, otherUsername string) (int64, bool, error)
}

type chatsView struct {
	session *chat.ChatListSession
	creator ChatCreator
	user    models.User

	chats    []models.Chat
	selected int
	top      int

	// prompt is the "start a chat with @username" input; empty means closed.
	promptOpen bool
	promptText string
	promptErr  string

	lastHeight int
}

func newChatsView(session *chat.ChatListSession, creator ChatCreator, user models.User) *chatsView {
	return &chatsView{
		session: session,
		creator: creator,
		user:    user,
		chats:   session.Chats(),
	}
}

func (v *chatsView) Init() tea.Cmd {
	return v.waitCmd()
}

// waitCmd blocks on the chat list feed and re-arms itself on every delivery.
func (v *chatsView) waitCmd() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-v.session.Events()
		return chatListMsg{chats: ev.Chats, ok: ok}
	}
}

func (v *chatsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case chatListMsg:
		if !typed.ok {
			return nil
		}
		v.applyChats(typed.chats)
		return v.waitCmd()
	case chatCreatedMsg:
		return v.applyCreated(typed)
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *chatsView) applyChats(chats []models.Chat) {
	selectedID := v.selectedChatID()
	v.chats = chats

	// Keep the highlighted chat stable while the list reorders under it.
	if selectedID != 0 {
		for i, c := range chats {
			if c.ID == selectedID {
				v.selected = i
				break
			}
		}
	}
	v.selected = clampInt(v.selected, 0, maxInt(0, len(chats)-1))
	v.ensureVisible()
}

func (v *chatsView) applyCreated(msg chatCreatedMsg) tea.Cmd {
	if msg.err != nil {
		v.promptErr = msg.err.Error()
		return nil
	}
	v.promptOpen = false
	v.promptText = ""
	v.promptErr = ""

	for _, c := range v.chats {
		if c.ID == msg.chatID {
			return openChatCmd(c)
		}
	}
	// New chat not in the cached list yet; open with what we know and let the
	// next coarse tick fill in the name.
	return openChatCmd(models.Chat{ID: msg.chatID})
}

func (v *chatsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.promptOpen {
		return v.handlePromptKey(msg)
	}

	switch msg.String() {
	case "j", "down":
		v.move(1)
	case "k", "up":
		v.move(-1)
	case "g", "home":
		v.selected = 0
		v.ensureVisible()
	case "G", "end":
		v.selected = maxInt(0, len(v.chats)-1)
		v.ensureVisible()
	case "n":
		v.promptOpen = true
		v.promptText = ""
		v.promptErr = ""
	case "enter":
		if c, ok := v.selectedChat(); ok {
			return openChatCmd(c)
		}
	}
	return nil
}

func (v *chatsView) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.promptOpen = false
		v.promptErr = ""
		return nil
	case tea.KeyEnter:
		username := strings.TrimSpace(strings.TrimPrefix(v.promptText, "@"))
		if username == "" {
			v.promptErr = "username required"
			return nil
		}
		return v.createChatCmd(username)
	case tea.KeyBackspace:
		runes := []rune(v.promptText)
		if len(runes) > 0 {
			v.promptText = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeyRunes, tea.KeySpace:
		v.promptText += string(msg.Runes)
		return nil
	}
	return nil
}

func (v *chatsView) createChatCmd(username string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), newChatTimeout)
		defer cancel()

		chatID, existing, err := v.creator.CreatePersonalChat(ctx, v.user.ID, username)
		return chatCreatedMsg{chatID: chatID, existing: existing, err: err}
	}
}

func (v *chatsView) move(delta int) {
	if len(v.chats) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected+delta, 0, len(v.chats)-1)
	v.ensureVisible()
}

func (v *chatsView) ensureVisible() {
	visible := maxInt(1, v.lastHeight-1)
	if v.selected < v.top {
		v.top = v.selected
	}
	if v.selected >= v.top+visible {
		v.top = v.selected - visible + 1
	}
}

func (v *chatsView) selectedChat() (models.Chat, bool) {
	if v.selected < 0 || v.selected >= len(v.chats) {
		return models.Chat{}, false
	}
	return v.chats[v.selected], true
}

func (v *chatsView) selectedChatID() int64 {
	if c, ok := v.selectedChat(); ok {
		return c.ID
	}
	return 0
}

func (v *chatsView) View(width, height int, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	v.lastHeight = height

	palette := themePalette(theme)

	if v.promptOpen {
		return v.renderPrompt(width, height, palette)
	}
	if len(v.chats) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Muted)).
			Render("no conversations yet; press n to start one")
		return empty
	}

	var lines []string
	visible := maxInt(1, height)
	for i := v.top; i < len(v.chats) && len(lines) < visible; i++ {
		lines = append(lines, v.renderRow(v.chats[i], i == v.selected, width, palette))
	}
	return strings.Join(lines, "\n")
}

func (v *chatsView) renderRow(c models.Chat, selected bool, width int, palette styles.Theme) string {
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("chat %d", c.ID)
	}
	if c.IsGroup {
		name = "⊛ " + name
	}

	clock := formatClock(c.LastMessageTime)
	preview := strings.Join(strings.Fields(c.LastMessage), " ")

	nameWidth := minInt(24, maxInt(8, width/3))
	line := fmt.Sprintf("%-*s %s", nameWidth, truncate(name, nameWidth), truncate(preview, maxInt(0, width-nameWidth-10)))
	if clock != "" {
		pad := width - lipgloss.Width(line) - lipgloss.Width(clock) - 1
		if pad > 0 {
			line += strings.Repeat(" ", pad) + clock
		}
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Foreground))
	if selected {
		style = style.Foreground(lipgloss.Color(palette.Chrome.SelectedItem)).Bold(true)
		line = "> " + line
	} else {
		line = "  " + line
	}
	return style.Render(truncate(line, width))
}

func (v *chatsView) renderPrompt(width, height int, palette styles.Theme) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Accent)).
		Render("start a chat with: ")
	input := v.promptText + "▌"
	lines := []string{label + input}
	if v.promptErr != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(palette.Chrome.Badge)).Render(v.promptErr))
	}
	lines = append(lines, lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Muted)).Render("enter to open, esc to cancel"))
	return strings.Join(lines, "\n")
}

func themePalette(theme Theme) styles.Theme {
	if palette, ok := styles.Themes[string(theme)]; ok {
		return palette
	}
	return styles.DefaultTheme
}
