// Package styles defines the visual styling for the terminal client.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	BgAccent = lipgloss.Color("236")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Padding(1, 2)

// CardStyle frames a panel.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// FocusedCardStyle frames the panel holding keyboard focus.
var FocusedCardStyle = CardStyle.
	BorderForeground(Secondary)

var (
	HelpStyle = lipgloss.NewStyle().Foreground(TextMuted)

	LabelStyle = lipgloss.NewStyle().Foreground(TextSecondary)

	ErrorTextStyle = lipgloss.NewStyle().Foreground(Error)

	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(BgAccent).
			Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextSecondary).
			Padding(0, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(Subtle)

	ActiveButtonStyle = ButtonStyle.
				Foreground(TextPrimary).
				BorderForeground(Primary).
				Bold(true)
)

// Navbar and sidebar.
var (
	NavbarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Subtle)

	BrandStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary)

	SidebarStyle = lipgloss.NewStyle().
			Padding(1, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Subtle)

	ActiveNavStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	InactiveNavStyle = lipgloss.NewStyle().Foreground(TextSecondary)
)

// Chat transcript roles.
var (
	UserRoleStyle      = lipgloss.NewStyle().Bold(true).Foreground(Info)
	AssistantRoleStyle = lipgloss.NewStyle().Bold(true).Foreground(Success)
)

// HelpPanelStyle frames the keyboard shortcut overlay.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Secondary).
	Padding(1, 2)
