package chattui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/convohq/convo/internal/chattui/styles"
	"github.com/convohq/convo/internal/models"
)

func (v *conversationView) View(width, height int, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	v.lastWidth = width
	v.lastHeight = height

	palette := themePalette(theme)

	if v.showParticipants {
		return v.renderParticipants(width, height, palette)
	}

	composeBlock := v.renderCompose(width, palette)
	composeHeight := lipgloss.Height(composeBlock)
	v.bodyRows = maxInt(1, height-composeHeight)

	body := v.renderHistory(width, v.bodyRows, palette)
	return lipgloss.JoinVertical(lipgloss.Left, body, composeBlock)
}

func (v *conversationView) renderHistory(width, rows int, palette styles.Theme) string {
	if len(v.messages) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Muted)).
			Render("no messages yet")
	}

	var lines []string
	var prevDay string
	dividerDrawn := false

	for i, m := range v.messages {
		day := ""
		if !m.CreatedAt.IsZero() {
			day = formatDay(m.CreatedAt.Time)
		}
		if day != "" && day != prevDay {
			lines = append(lines, v.renderDivider(day, width, palette))
			prevDay = day
		}

		if !dividerDrawn && v.openMarker > 0 && m.ID > v.openMarker && !m.Pending {
			lines = append(lines, v.renderDivider("new", width, palette))
			dividerDrawn = true
		}

		lines = append(lines, v.renderMessage(m, i == v.selected, width, palette)...)
	}

	// Window the rendered lines: offset counts rows up from the tail.
	total := len(lines)
	v.offset = clampInt(v.offset, 0, maxInt(0, total-rows))
	end := total - v.offset
	start := maxInt(0, end-rows)
	return strings.Join(lines[start:end], "\n")
}

func (v *conversationView) renderMessage(m models.Message, selected bool, width int, palette styles.Theme) []string {
	color := palette.Message.Other
	switch {
	case m.System:
		color = palette.Message.System
	case m.SenderID == v.deps.user.ID:
		color = palette.Message.Own
	}

	if m.System {
		line := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Italic(true).
			Render(truncate("· "+m.Content, width))
		return []string{line}
	}

	name := m.SenderNickname
	if name == "" {
		name = m.SenderUsername
	}
	header := name
	if v.deps.showTimestamps {
		if clock := formatClock(m.CreatedAt); clock != "" {
			header += "  " + clock
		}
	}
	if m.Edited && !m.Deleted {
		header += "  (edited)"
	}
	if m.Pending {
		header += "  … sending"
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	if m.Pending {
		headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Message.Pending))
	}
	if selected {
		headerStyle = headerStyle.Background(lipgloss.Color(palette.Chrome.SelectedItem)).
			Foreground(lipgloss.Color(palette.Base.Background))
	}

	lines := []string{headerStyle.Render(truncate(header, width))}

	body := v.messageBody(m)
	bodyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Foreground))
	if m.Deleted {
		bodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Message.Deleted)).Italic(true)
	} else if m.Pending {
		bodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Message.Pending))
	}

	wrapped := wordwrap.String(body, maxInt(1, width-2))
	for _, line := range strings.Split(wrapped, "\n") {
		lines = append(lines, bodyStyle.Render("  "+line))
	}
	return lines
}

// messageBody is where the tombstone becomes visible: deletion is a flag on
// the message everywhere else, and only the renderer chooses the placeholder
// text.
func (v *conversationView) messageBody(m models.Message) string {
	if m.Deleted {
		return models.DeletedSentinel
	}
	if m.PhotoURL != "" {
		if m.PhotoCaption != "" {
			return "[photo] " + m.PhotoCaption
		}
		return "[photo]"
	}
	return m.Content
}

func (v *conversationView) renderDivider(label string, width int, palette styles.Theme) string {
	text := " " + label + " "
	fill := maxInt(0, width-lipgloss.Width(text)) / 2
	line := strings.Repeat("─", fill) + text + strings.Repeat("─", maxInt(0, width-fill-lipgloss.Width(text)))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Chrome.Divider)).
		Render(truncate(line, width))
}

func (v *conversationView) renderCompose(width int, palette styles.Theme) string {
	var lines []string

	if v.status != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(palette.Chrome.Badge)).
			Render(truncate(v.status, width)))
	}

	if v.compose.attachOpen {
		prompt := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Accent)).
			Render("photo path: ")
		lines = append(lines, truncate(prompt+v.compose.attachPath+"▌", width))
		return strings.Join(lines, "\n")
	}

	label := "> "
	if v.compose.editingID != 0 {
		label = "edit> "
	}
	if v.compose.photoURL != "" {
		label = "[photo] " + label
	}
	if v.focus == focusHistory {
		label = "· " + label
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Accent))
	cursor := "▌"
	if v.focus == focusHistory {
		cursor = ""
	}
	lines = append(lines, style.Render(truncate(label+v.compose.text+cursor, width)))
	return strings.Join(lines, "\n")
}

func (v *conversationView) renderParticipants(width, height int, palette styles.Theme) string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Base.Accent)).Bold(true).
		Render(fmt.Sprintf("%s — %d members", v.chat.Name, len(v.participants)))

	lines := []string{title, ""}
	for _, p := range v.participants {
		name := p.Nickname
		if name == "" {
			name = p.Username
		}
		row := fmt.Sprintf("  %s (@%s)", name, p.Username)
		if p.IsCreator {
			row += "  ★ creator"
		}
		lines = append(lines, truncate(row, width))
		if len(lines) >= height-1 {
			break
		}
	}
	lines = append(lines, lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Muted)).Render("press any key to close"))
	return strings.Join(lines, "\n")
}
