package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/activity"
	chatsvc "llmconnector/internal/chat"
	"llmconnector/internal/models"
	"llmconnector/internal/ui/styles"
)

// View renders the chat screen.
func (m *Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderProvider(),
		m.renderTranscript(),
		m.renderInput(),
	)
	side := m.renderHistory()

	return styles.DocStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, main, " ", side))
}

func (m *Model) frame(focused bool, width int) lipgloss.Style {
	style := styles.CardStyle
	if focused {
		style = styles.FocusedCardStyle
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style
}

func (m *Model) mainWidth() int {
	if m.width <= 0 {
		return 0
	}
	return max(20, m.width-historyWidth-4) - 2
}

func (m *Model) renderProvider() string {
	choices := make([]string, 0, len(models.Providers))
	for _, p := range models.Providers {
		if p == m.conv.Provider {
			choices = append(choices, styles.SelectedStyle.Render(" "+p.Label()+" "))
		} else {
			choices = append(choices, styles.InactiveNavStyle.Render(" "+p.Label()+" "))
		}
	}
	line := strings.Join(choices, " ")
	switch {
	case m.conv.Provider == "":
		line += "  " + styles.HelpStyle.Render("select a provider to start")
	case len(m.conv.Messages) > 0:
		line += "  " + styles.HelpStyle.Render("ctrl+n for a new chat")
	}
	return m.frame(m.focus == focusProvider, m.mainWidth()).Render(line)
}

func (m *Model) renderTranscript() string {
	title := styles.SubTitleStyle.Render("Conversation")
	if !m.chats.Dispatching() {
		title += styles.HelpStyle.Render("  (messages are saved, replies are off)")
	}
	return m.frame(false, m.mainWidth()).Render(title + "\n" + m.transcript.View())
}

func (m *Model) renderInput() string {
	content := m.input.View()
	if m.sending {
		content = m.spinner.View() + styles.HelpStyle.Render(" Sending...")
	}
	return m.frame(m.focus == focusInput, m.mainWidth()).Render(content)
}

// refreshTranscript rebuilds the viewport content and scrolls to the end.
func (m *Model) refreshTranscript() {
	m.transcript.SetContent(renderMessages(m.conv, m.transcript.Width))
	m.transcript.GotoBottom()
}

func renderMessages(conv chatsvc.Conversation, width int) string {
	if len(conv.Messages) == 0 {
		return styles.HelpStyle.Render("No messages yet.")
	}

	body := lipgloss.NewStyle()
	if width > 2 {
		body = body.Width(width - 2)
	}

	parts := make([]string, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		var label string
		if msg.Role == models.RoleUser {
			label = styles.UserRoleStyle.Render("You")
		} else {
			label = styles.AssistantRoleStyle.Render(conv.Provider.Label())
		}
		parts = append(parts, label+"\n"+body.Render(msg.Content))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderHistory() string {
	lines := []string{styles.SubTitleStyle.Render("History"), ""}

	switch {
	case !m.loaded:
		lines = append(lines, styles.HelpStyle.Render("Loading..."))
	case len(m.sessions) == 0:
		lines = append(lines, styles.HelpStyle.Render("No saved chats."))
	default:
		inner := historyWidth - 4
		for i, s := range m.sessions {
			head := fmt.Sprintf("%s · %s", s.Provider.Label(), activity.AbsoluteTime(s.CreatedAt))
			preview := truncate(s.LastMessage(), inner-2)
			entry := head + "\n  " + styles.HelpStyle.Render(preview)
			if i == m.cursor && m.focus == focusHistory {
				entry = styles.SelectedStyle.Render("▸ "+head) + "\n  " + styles.HelpStyle.Render(preview)
			} else {
				entry = "  " + entry
			}
			if s.ID != "" && s.ID == m.conv.ID {
				entry += styles.ActiveNavStyle.Render(" ●")
			}
			lines = append(lines, entry)
		}
	}

	return m.frame(m.focus == focusHistory, historyWidth-2).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
