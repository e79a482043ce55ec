// Package components holds the chrome shared by every screen.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/auth"
	"llmconnector/internal/ui/styles"
)

// AppTitle is shown in the navbar.
const AppTitle = "LLM Connector"

// SidebarWidth is the rendered width of the sidebar including its border.
const SidebarWidth = 18

// NavItem is one sidebar entry.
type NavItem struct {
	Route    auth.Route
	Shortcut string
}

// SidebarItems lists the signed-in destinations in display order.
var SidebarItems = []NavItem{
	{Route: auth.RouteChat, Shortcut: "alt+1"},
	{Route: auth.RouteSettings, Shortcut: "alt+2"},
	{Route: auth.RouteHistory, Shortcut: "alt+3"},
}

// Navbar renders the top bar: title on the left, the signed-in user and the
// session actions on the right.
func Navbar(width int, email string) string {
	left := styles.BrandStyle.Render(AppTitle)

	var right string
	if email == "" {
		right = styles.HelpStyle.Render("not signed in")
	} else {
		right = strings.Join([]string{
			styles.LabelStyle.Render(email),
			styles.HelpStyle.Render("alt+2 settings"),
			styles.HelpStyle.Render("ctrl+o sign out"),
		}, styles.HelpStyle.Render("  ·  "))
	}

	inner := width - styles.NavbarStyle.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	if width <= 0 {
		return styles.NavbarStyle.Render(bar)
	}
	return styles.NavbarStyle.Width(width).Render(bar)
}

// Sidebar renders the navigation column with active highlighted.
func Sidebar(height int, active auth.Route) string {
	lines := make([]string, 0, len(SidebarItems)*2)
	for _, item := range SidebarItems {
		label := item.Route.Title()
		if item.Route == active {
			lines = append(lines, styles.ActiveNavStyle.Render("▸ "+label))
		} else {
			lines = append(lines, styles.InactiveNavStyle.Render("  "+label))
		}
		lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("  %s", item.Shortcut)))
	}

	style := styles.SidebarStyle.Width(SidebarWidth - styles.SidebarStyle.GetHorizontalBorderSize())
	if h := height - styles.SidebarStyle.GetVerticalBorderSize(); h > 0 {
		style = style.Height(h)
	}
	return style.Render(strings.Join(lines, "\n"))
}
