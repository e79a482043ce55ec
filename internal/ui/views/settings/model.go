// Package settings manages the stored provider API keys.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/keys"
	"llmconnector/internal/models"
	"llmconnector/internal/ui/views/history"
)

// KeyStore is the key manager the screen drives.
type KeyStore interface {
	List(ctx context.Context) ([]models.APIKey, error)
	Add(ctx context.Context, provider, key string) (models.APIKey, error)
	Delete(ctx context.Context, id string) error
}

type focusArea int

const (
	focusProvider focusArea = iota
	focusKey
	focusList
	focusCount
)

type keyMap struct {
	Next         key.Binding
	PrevProvider key.Binding
	NextProvider key.Binding
	Submit       key.Binding
	Up           key.Binding
	Down         key.Binding
	Delete       key.Binding
	Confirm      key.Binding
	Cancel       key.Binding
	Refresh      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		PrevProvider: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous provider")),
		NextProvider: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next provider")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add key")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete key")),
		Confirm:      key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		Cancel:       key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
		Refresh:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	}
}

type keysLoadedMsg struct {
	keys []models.APIKey
	err  error
}

type keyAddedMsg struct {
	key models.APIKey
	err error
}

type keyDeletedMsg struct {
	key models.APIKey
	err error
}

// Model represents the settings screen.
type Model struct {
	store   KeyStore
	timeout time.Duration
	history *history.Panel

	// provider indexes models.Providers; -1 means none selected.
	provider int
	input    textinput.Model
	focus    focusArea
	keys     keyMap

	list    []models.APIKey
	cursor  int
	loaded  bool
	loading bool

	formErr       string
	adding        bool
	confirmDelete bool
	deleting      bool

	width  int
	height int
}

func New(store KeyStore, commits history.Source, timeout time.Duration) *Model {
	input := textinput.New()
	input.Placeholder = "Paste API key..."
	input.CharLimit = 256
	input.Width = 48
	input.EchoMode = textinput.EchoPassword

	return &Model{
		store:    store,
		timeout:  timeout,
		history:  history.NewPanel(commits, timeout),
		provider: -1,
		input:    input,
		keys:     defaultKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.formErr = ""
	m.confirmDelete = false
	m.updateFocus()
	return tea.Batch(m.loadKeys(), m.history.Load(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case keysLoadedMsg:
		return m, m.handleLoaded(msg)
	case keyAddedMsg:
		return m, m.handleAdded(msg)
	case keyDeletedMsg:
		return m, m.handleDeleted(msg)
	case app.SignedOutMsg:
		m.list = nil
		m.loaded = false
		m.cursor = 0
		m.provider = -1
		m.input.SetValue("")
		m.formErr = ""
		return m, m.history.Update(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(cmd, m.history.Update(msg))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmDelete = false
			return m.deleteSelected()
		case key.Matches(msg, m.keys.Cancel):
			m.confirmDelete = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % focusCount
		m.updateFocus()
		return textinput.Blink
	case key.Matches(msg, m.keys.Refresh):
		return tea.Batch(m.loadKeys(), m.history.Load())
	}

	switch m.focus {
	case focusProvider:
		switch {
		case key.Matches(msg, m.keys.PrevProvider):
			m.cycleProvider(-1)
		case key.Matches(msg, m.keys.NextProvider):
			m.cycleProvider(1)
		case key.Matches(msg, m.keys.Submit):
			m.focus = focusKey
			m.updateFocus()
			return textinput.Blink
		}
		return nil

	case focusKey:
		if key.Matches(msg, m.keys.Submit) {
			return m.addKey()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd

	case focusList:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.list)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Delete):
			if len(m.list) > 0 && !m.deleting {
				m.confirmDelete = true
			}
		}
	}
	return nil
}

func (m *Model) cycleProvider(step int) {
	n := len(models.Providers)
	if m.provider < 0 {
		if step > 0 {
			m.provider = 0
		} else {
			m.provider = n - 1
		}
		return
	}
	m.provider = (m.provider + step + n) % n
}

func (m *Model) selectedProvider() models.Provider {
	if m.provider < 0 || m.provider >= len(models.Providers) {
		return ""
	}
	return models.Providers[m.provider]
}

func (m *Model) loadKeys() tea.Cmd {
	m.loading = true
	store, timeout := m.store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		list, err := store.List(ctx)
		return keysLoadedMsg{keys: list, err: err}
	}
}

// addKey validates the form before anything is sent.
func (m *Model) addKey() tea.Cmd {
	if m.adding {
		return nil
	}
	provider, value, err := keys.Validate(string(m.selectedProvider()), m.input.Value())
	if err != nil {
		m.formErr = err.Error()
		return nil
	}
	m.formErr = ""
	m.adding = true

	store, timeout := m.store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		k, err := store.Add(ctx, string(provider), value)
		return keyAddedMsg{key: k, err: err}
	}
}

func (m *Model) deleteSelected() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return nil
	}
	target := m.list[m.cursor]
	m.deleting = true

	store, timeout := m.store, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return keyDeletedMsg{key: target, err: store.Delete(ctx, target.ID)}
	}
}

func (m *Model) handleLoaded(msg keysLoadedMsg) tea.Cmd {
	m.loading = false
	if msg.err != nil {
		return app.ErrorCmd("Could not load API keys", msg.err)
	}
	m.list = msg.keys
	m.loaded = true
	if m.cursor >= len(m.list) {
		m.cursor = max(0, len(m.list)-1)
	}
	return nil
}

// handleAdded reloads the list rather than patching it; only rows the
// backend returned are shown.
func (m *Model) handleAdded(msg keyAddedMsg) tea.Cmd {
	m.adding = false
	if msg.err != nil {
		return app.ErrorCmd("Could not add API key", msg.err)
	}
	m.input.SetValue("")
	return tea.Batch(
		app.NotifySuccess(fmt.Sprintf("Added %s API key", msg.key.Provider.Label())),
		m.loadKeys(),
		m.history.Load(),
	)
}

func (m *Model) handleDeleted(msg keyDeletedMsg) tea.Cmd {
	m.deleting = false
	if msg.err != nil {
		return app.ErrorCmd("Could not delete API key", msg.err)
	}
	return tea.Batch(
		app.NotifySuccess(fmt.Sprintf("Removed %s API key", msg.key.Provider.Label())),
		m.loadKeys(),
		m.history.Load(),
	)
}

func (m *Model) updateFocus() {
	if m.focus == focusKey {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.history.SetWidth(width - 4)
}

func (m *Model) ShortHelp() []key.Binding {
	if m.confirmDelete {
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	switch m.focus {
	case focusProvider:
		return []key.Binding{m.keys.PrevProvider, m.keys.NextProvider, m.keys.Next}
	case focusList:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Delete, m.keys.Next}
	default:
		return []key.Binding{m.keys.Submit, m.keys.Next, m.keys.Refresh}
	}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.Refresh},
		{m.keys.PrevProvider, m.keys.NextProvider, m.keys.Submit},
		{m.keys.Up, m.keys.Down, m.keys.Delete},
	}
}
