package login

import (
	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/ui/styles"
)

// View renders the sign-in form.
func (m *Model) View() string {
	sections := []string{
		styles.TitleStyle.Render("Sign in"),
		styles.LabelStyle.Render("Email"),
		m.email.View(),
		"",
		styles.LabelStyle.Render("Password"),
		m.password.View(),
		"",
		m.renderSubmit(),
	}

	if m.err != "" {
		sections = append(sections, "", styles.ErrorTextStyle.Render(m.err))
	}

	sections = append(sections, "", styles.HelpStyle.Render("No account yet? Press ctrl+n to register."))

	form := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return styles.DocStyle.Render(form)
}

func (m *Model) renderSubmit() string {
	label := "Sign in"
	if m.submitting {
		label = "Signing in..."
	}
	if m.focus == fieldSubmit {
		return styles.ActiveButtonStyle.Render(label)
	}
	return styles.ButtonStyle.Render(label)
}
