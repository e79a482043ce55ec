// Package landing is the public start screen.
package landing

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/auth"
)

type keyMap struct {
	Login    key.Binding
	Register key.Binding
	Chat     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Login:    key.NewBinding(key.WithKeys("l", "enter"), key.WithHelp("l", "sign in")),
		Register: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "create account")),
		Chat:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "try chat")),
	}
}

// Model represents the landing screen.
type Model struct {
	keys   keyMap
	width  int
	height int
}

func New() *Model {
	return &Model{keys: defaultKeyMap()}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Login):
		return m, app.Navigate(auth.RouteLogin)
	case key.Matches(keyMsg, m.keys.Register):
		return m, app.Navigate(auth.RouteRegister)
	case key.Matches(keyMsg, m.keys.Chat):
		return m, app.Navigate(auth.RouteChat)
	}
	return m, nil
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Login, m.keys.Register, m.keys.Chat}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
