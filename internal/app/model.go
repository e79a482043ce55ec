// Package app implements the root Bubble Tea model: it routes between
// screens through the session guard and owns the shared chrome and toasts.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"llmconnector/internal/auth"
	"llmconnector/internal/models"
	"llmconnector/internal/ui/components"
	"llmconnector/internal/ui/styles"
)

// Tab defines the interface every screen implements.
type Tab interface {
	// Init is called each time the screen becomes active and returns the
	// commands that load its data.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	ShortHelp() []key.Binding
	FullHelp() [][]key.Binding
}

// Session is the part of the auth gate the root model needs.
type Session interface {
	Guard(r auth.Route) auth.Route
	Current() (models.User, bool)
	SignOut(ctx context.Context)
}

// KeyMap defines the global keybindings.
type KeyMap struct {
	Chat     key.Binding
	Settings key.Binding
	History  key.Binding
	SignOut  key.Binding
	Help     key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings. Printable keys are left to
// the screens since most of them hold text inputs.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Chat:     key.NewBinding(key.WithKeys("alt+1"), key.WithHelp("alt+1", "chat")),
		Settings: key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("alt+2", "settings")),
		History:  key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("alt+3", "history")),
		SignOut:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.SignOut, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Chat, k.Settings, k.History},
		{k.SignOut, k.Help, k.Quit},
	}
}

// Styles defines the root model styles.
type Styles struct {
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationInfo    lipgloss.Style

	Toast     lipgloss.Style
	Content   lipgloss.Style
	Help      lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default root styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Toast = styles.ToastStyle
	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	return s
}

type Config struct {
	Session Session
	// DesktopNotify mirrors error toasts to the desktop when set.
	DesktopNotify func(title, message string) error
	// SignOutTimeout bounds the remote sign-out call.
	SignOutTimeout time.Duration
	Logger         zerolog.Logger
	Now            func() time.Time
}

// Model is the root application model.
type Model struct {
	session        Session
	desktopNotify  func(title, message string) error
	signOutTimeout time.Duration
	logger         zerolog.Logger

	route auth.Route
	tabs  map[auth.Route]Tab

	toasts notifications
	keymap KeyMap
	styles Styles

	width    int
	height   int
	showHelp bool
}

// NewModel initializes the root model. Screens are attached with SetTabs.
func NewModel(cfg Config) *Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SignOutTimeout <= 0 {
		cfg.SignOutTimeout = 10 * time.Second
	}
	return &Model{
		session:        cfg.Session,
		desktopNotify:  cfg.DesktopNotify,
		signOutTimeout: cfg.SignOutTimeout,
		logger:         cfg.Logger,
		route:          auth.RouteLanding,
		tabs:           map[auth.Route]Tab{},
		toasts:         notifications{now: cfg.Now},
		keymap:         DefaultKeyMap(),
		styles:         DefaultStyles(),
	}
}

// SetTabs sets the screen for each route.
func (m *Model) SetTabs(tabs map[auth.Route]Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// Route returns the route currently rendered.
func (m *Model) Route() auth.Route {
	return m.route
}

// Notifications returns the toasts currently shown.
func (m *Model) Notifications() []Notification {
	return m.toasts.active()
}

// Init opens chat for a restored session and the landing screen otherwise.
func (m *Model) Init() tea.Cmd {
	start := auth.RouteLanding
	if _, ok := m.session.Current(); ok {
		start = auth.RouteChat
	}
	return m.navigate(start)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateTabSizes()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKeyMsg(msg); handled {
			return m, cmd
		}
		return m, m.updateActiveTab(msg)

	case NavigateMsg:
		return m, m.navigate(msg.Route)

	case SignedInMsg:
		m.logger.Debug().Str("user_id", msg.User.ID).Msg("session started")
		return m, tea.Batch(
			NotifySuccess(fmt.Sprintf("Signed in as %s", msg.User.Email)),
			m.navigate(auth.RouteChat),
		)

	case SignOutMsg:
		return m, signOutCmd(m.session, m.signOutTimeout)

	case SignedOutMsg:
		cmds := m.broadcast(msg)
		cmds = append(cmds, NotifyInfo("Signed out"), m.navigate(auth.RouteLanding))
		return m, tea.Batch(cmds...)

	case AddNotificationMsg:
		return m, m.handleAddNotification(msg)

	case RemoveNotificationMsg:
		m.toasts.remove(msg.ID)
		return m, nil

	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
		return m, nil
	}

	// Results of commands may arrive after the user moved on, so every
	// screen sees them and ignores what is not its own.
	return m, tea.Batch(m.broadcast(msg)...)
}

// handleKeyMsg handles the global keybindings.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape) && m.showHelp:
		m.showHelp = false
		return nil, true

	case key.Matches(msg, m.keymap.Chat):
		return m.navigate(auth.RouteChat), true

	case key.Matches(msg, m.keymap.Settings):
		return m.navigate(auth.RouteSettings), true

	case key.Matches(msg, m.keymap.History):
		return m.navigate(auth.RouteHistory), true

	case key.Matches(msg, m.keymap.SignOut):
		if _, ok := m.session.Current(); !ok {
			return nil, true
		}
		return signOutCmd(m.session, m.signOutTimeout), true
	}
	return nil, false
}

// navigate switches to the route the guard allows and starts its loading.
func (m *Model) navigate(requested auth.Route) tea.Cmd {
	target := m.session.Guard(requested)

	var cmds []tea.Cmd
	if target != requested {
		cmds = append(cmds, NotifyInfo(fmt.Sprintf("Sign in to open %s", requested.Title())))
	}

	m.route = target
	m.showHelp = false
	m.updateTabSizes()
	if tab := m.tabs[target]; tab != nil {
		cmds = append(cmds, tab.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) tea.Cmd {
	id := m.toasts.add(msg.Type, msg.Message, msg.Duration)

	var cmds []tea.Cmd
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	if msg.Type == NotificationError && m.desktopNotify != nil {
		cmds = append(cmds, desktopNotifyCmd(m.desktopNotify, msg.Message))
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	tab := m.tabs[m.route]
	if tab == nil {
		return nil
	}
	var cmd tea.Cmd
	m.tabs[m.route], cmd = tab.Update(msg)
	return cmd
}

func (m *Model) broadcast(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	for r, tab := range m.tabs {
		if tab == nil {
			continue
		}
		var cmd tea.Cmd
		m.tabs[r], cmd = tab.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// withSidebar reports whether the current screen is rendered next to the
// sidebar.
func (m *Model) withSidebar() bool {
	if !m.route.Protected() {
		return false
	}
	_, ok := m.session.Current()
	return ok
}

func (m *Model) updateTabSizes() {
	if m.width == 0 && m.height == 0 {
		return
	}
	width := m.width
	if m.withSidebar() {
		width -= components.SidebarWidth
	}
	height := max(0, m.height-2)

	for r, tab := range m.tabs {
		if tab == nil {
			continue
		}
		w := width
		if !r.Protected() {
			w = m.width
		}
		tab.SetSize(max(0, w), height)
	}
}

// View renders the application UI.
func (m *Model) View() string {
	var email string
	if u, ok := m.session.Current(); ok {
		email = u.Email
	}

	content := m.renderPlaceholder()
	if tab := m.tabs[m.route]; tab != nil {
		content = tab.View()
	}
	if m.withSidebar() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, components.Sidebar(m.height-2, m.route), content)
	}

	mainView := components.Navbar(m.width, email) + "\n" + content

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		return m.overlayToasts(mainView, toasts)
	}
	return mainView
}

func (m *Model) renderNotifications() []string {
	active := m.toasts.active()
	if len(active) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(active))
	for _, n := range active {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		default:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}
	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)
	startY := 2

	for len(mainLines) < startY+len(toastLines) {
		mainLines = append(mainLines, "")
	}

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-mainLineWidth) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	x := max((m.width-lipgloss.Width(overlay))/2, 0)
	y := max((m.height-len(overlayLines))/2, 0)
	overlayWidth := lipgloss.Width(overlay)

	for len(mainLines) < y+len(overlayLines) {
		mainLines = append(mainLines, "")
	}

	for i, overlayLine := range overlayLines {
		mainLine := mainLines[y+i]
		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		mainLines[y+i] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"), "")
	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	for _, b := range []key.Binding{m.keymap.Chat, m.keymap.Settings, m.keymap.History} {
		lines = append(lines, fmt.Sprintf("  %-10s %s", b.Help().Key, b.Help().Desc))
	}
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Session"))
	for _, b := range []key.Binding{m.keymap.SignOut, m.keymap.Help, m.keymap.Quit} {
		lines = append(lines, fmt.Sprintf("  %-10s %s", b.Help().Key, b.Help().Desc))
	}

	if tab := m.tabs[m.route]; tab != nil {
		if tabHelp := tab.ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, "", m.styles.Highlight.Render(m.route.Title()))
			for _, b := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", b.Help().Key, b.Help().Desc))
			}
		}
	}

	lines = append(lines, "", m.styles.Subtle.Render("Press f1 or esc to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	return m.styles.Content.Render(m.styles.Subtle.Render(m.route.Title() + " is not available."))
}

// ErrorCmd turns a failed call into an error toast. A lost session also
// sends the user back to the login screen.
func ErrorCmd(action string, err error) tea.Cmd {
	msg := fmt.Sprintf("%s: %v", action, err)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return tea.Batch(NotifyError(msg), Navigate(auth.RouteLogin))
	}
	return NotifyError(msg)
}
