package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/auth"
)

func TestNavbarSignedOut(t *testing.T) {
	bar := Navbar(80, "")
	if !strings.Contains(bar, AppTitle) || !strings.Contains(bar, "not signed in") {
		t.Errorf("navbar = %q", bar)
	}
	if strings.Contains(bar, "sign out") {
		t.Error("sign-out offered without a session")
	}
}

func TestNavbarSignedIn(t *testing.T) {
	bar := Navbar(100, "ada@example.com")
	for _, want := range []string{AppTitle, "ada@example.com", "settings", "sign out"} {
		if !strings.Contains(bar, want) {
			t.Errorf("navbar missing %q", want)
		}
	}
	if w := lipgloss.Width(bar); w != 100 {
		t.Errorf("width = %d, want 100", w)
	}
}

func TestSidebarListsDestinations(t *testing.T) {
	side := Sidebar(20, auth.RouteSettings)
	for _, item := range SidebarItems {
		if !strings.Contains(side, item.Route.Title()) || !strings.Contains(side, item.Shortcut) {
			t.Errorf("sidebar missing %s", item.Route)
		}
	}
	if !strings.Contains(side, "▸ "+auth.RouteSettings.Title()) {
		t.Error("active route not marked")
	}
	if w := lipgloss.Width(side); w != SidebarWidth {
		t.Errorf("width = %d, want %d", w, SidebarWidth)
	}
}
