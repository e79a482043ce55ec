package register

import (
	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/ui/styles"
)

var labels = [...]string{"Email", "Password", "Confirm password"}

// View renders the registration form.
func (m *Model) View() string {
	sections := []string{styles.TitleStyle.Render("Create an account")}
	for i, in := range m.inputs {
		sections = append(sections, styles.LabelStyle.Render(labels[i]), in.View(), "")
	}

	label := "Register"
	if m.submitting {
		label = "Creating account..."
	}
	if m.focus == fieldSubmit {
		sections = append(sections, styles.ActiveButtonStyle.Render(label))
	} else {
		sections = append(sections, styles.ButtonStyle.Render(label))
	}

	if m.err != "" {
		sections = append(sections, "", styles.ErrorTextStyle.Render(m.err))
	}
	sections = append(sections, "", styles.HelpStyle.Render("Already registered? Press ctrl+l to sign in."))

	return styles.DocStyle.Render(styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)))
}
