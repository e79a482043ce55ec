package history

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/ui/styles"
)

type keyMap struct {
	Refresh key.Binding
}

// Model is the history screen.
type Model struct {
	panel  *Panel
	keys   keyMap
	width  int
	height int
}

func New(src Source, timeout time.Duration) *Model {
	return &Model{
		panel: NewPanel(src, timeout),
		keys: keyMap{
			Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		},
	}
}

func (m *Model) Init() tea.Cmd {
	return m.panel.Load()
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Refresh) {
		return m, m.panel.Load()
	}
	return m, m.panel.Update(msg)
}

func (m *Model) View() string {
	return styles.DocStyle.Render(m.panel.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.panel.SetWidth(width - styles.DocStyle.GetHorizontalFrameSize())
}

func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
