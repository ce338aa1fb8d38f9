package chattui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderHeader() string {
	palette := themePalette(m.theme)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "convo"
	center := ""
	if m.activeViewID() == ViewConversation {
		if view, ok := m.views[ViewConversation].(*conversationView); ok && view.chat.ID != 0 {
			center = view.chat.Name
			if center == "" {
				center = fmt.Sprintf("chat %d", view.chat.ID)
			}
		}
	}
	right := fmt.Sprintf("@%s", m.user.Username)

	line := joinHeader(left, center, right, m.width)
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	palette := themePalette(m.theme)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	base := "[enter]Open [n]New chat [?]Help q Quit"
	if m.activeViewID() == ViewConversation {
		base = "[enter]Send [tab]History [ctrl+o]Photo [esc]Back"
	}
	if m.status != "" {
		base = base + "  " + m.status
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

func (m *Model) renderHelp(width, height int) string {
	palette := themePalette(m.theme)

	lines := []string{
		"convo keys",
		"",
		"chat list:",
		"  j/k or arrows   move",
		"  enter           open conversation",
		"  n               start a personal chat",
		"  q               quit",
		"",
		"conversation:",
		"  type + enter    send",
		"  ctrl+o          attach a photo by path",
		"  pgup/pgdn       scroll history (releases auto-follow)",
		"  end             jump to newest (re-engages auto-follow)",
		"  tab             select messages; e edit, d delete (own only)",
		"  p               group participants",
		"  esc             back to chat list",
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Foreground))
	return style.Render(strings.Join(lines[:maxInt(1, minInt(height, len(lines)))], "\n"))
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncate(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncate(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}
