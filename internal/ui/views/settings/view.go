package settings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/activity"
	"llmconnector/internal/models"
	"llmconnector/internal/ui/styles"
)

// View renders the settings screen.
func (m *Model) View() string {
	sections := []string{
		styles.TitleStyle.Render("Settings"),
		m.renderForm(),
		m.renderList(),
	}
	if m.confirmDelete && m.cursor < len(m.list) {
		k := m.list[m.cursor]
		sections = append(sections, styles.ErrorTextStyle.Render(
			fmt.Sprintf("Delete the %s key added %s? (y/n)", k.Provider.Label(), activity.AbsoluteTime(k.CreatedAt)),
		))
	}
	sections = append(sections, m.history.View())

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) cardStyle(focused bool) lipgloss.Style {
	style := styles.CardStyle
	if focused {
		style = styles.FocusedCardStyle
	}
	if m.width > 8 {
		style = style.Width(m.width - 4 - style.GetHorizontalBorderSize())
	}
	return style
}

func (m *Model) renderForm() string {
	choices := make([]string, 0, len(models.Providers))
	for i, p := range models.Providers {
		if i == m.provider {
			choices = append(choices, styles.SelectedStyle.Render(" "+p.Label()+" "))
		} else {
			choices = append(choices, styles.InactiveNavStyle.Render(" "+p.Label()+" "))
		}
	}
	selector := strings.Join(choices, " ")
	if m.provider < 0 {
		selector += "  " + styles.HelpStyle.Render("← → to select a provider")
	}

	label := "Add key"
	if m.adding {
		label = "Adding..."
	}

	lines := []string{
		styles.SubTitleStyle.Render("Add an API key"),
		"",
		styles.LabelStyle.Render("Provider"),
		selector,
		"",
		styles.LabelStyle.Render("API key"),
		m.input.View(),
		styles.HelpStyle.Render("enter: " + strings.ToLower(label)),
	}
	if m.formErr != "" {
		lines = append(lines, styles.ErrorTextStyle.Render(m.formErr))
	}

	return m.cardStyle(m.focus != focusList).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderList() string {
	lines := []string{styles.SubTitleStyle.Render("Your API keys"), ""}

	switch {
	case !m.loaded && m.loading:
		lines = append(lines, styles.HelpStyle.Render("Loading keys..."))
	case len(m.list) == 0:
		lines = append(lines, styles.HelpStyle.Render("No API keys yet. Add one above to get started."))
	default:
		for i, k := range m.list {
			row := fmt.Sprintf("%-10s %s  %s", k.Provider.Label(), k.Masked(), activity.AbsoluteTime(k.CreatedAt))
			if i == m.cursor && m.focus == focusList {
				lines = append(lines, styles.SelectedStyle.Render("▸ "+row))
			} else {
				lines = append(lines, "  "+row)
			}
		}
	}

	return m.cardStyle(m.focus == focusList).Render(strings.Join(lines, "\n"))
}
