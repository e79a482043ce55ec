package landing

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/models"
	"llmconnector/internal/ui/styles"
)

const blurb = "Keep your AI provider keys in one place, chat with the providers you use, and see every change you made in a commit-style history."

// View renders the landing screen.
func (m *Model) View() string {
	width := m.width - styles.DocStyle.GetHorizontalFrameSize()
	if width < 20 {
		width = 60
	}

	labels := make([]string, 0, len(models.Providers))
	for _, p := range models.Providers {
		labels = append(labels, p.Label())
	}

	sections := []string{
		styles.TitleStyle.Render("Connect your LLM providers"),
		lipgloss.NewStyle().Width(min(width, 72)).Render(blurb),
		"",
		styles.LabelStyle.Render("Supported: " + strings.Join(labels, ", ")),
		"",
		m.renderActions(),
	}

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderActions() string {
	var lines []string
	for _, b := range m.ShortHelp() {
		lines = append(lines, fmt.Sprintf("%s  %s",
			styles.ActiveNavStyle.Render(fmt.Sprintf("[%s]", b.Help().Key)),
			b.Help().Desc,
		))
	}
	return strings.Join(lines, "\n")
}
