// Package chat is the chat screen: provider selector, transcript, input and
// the list of stored sessions.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	chatsvc "llmconnector/internal/chat"
	"llmconnector/internal/models"
)

// Chats is the chat manager the screen drives.
type Chats interface {
	History(ctx context.Context) ([]models.ChatSession, error)
	Send(ctx context.Context, conv chatsvc.Conversation, text string) (chatsvc.Conversation, bool, error)
	Dispatching() bool
}

const historyWidth = 32

type focusArea int

const (
	focusInput focusArea = iota
	focusProvider
	focusHistory
	focusCount
)

type keyMap struct {
	Next         key.Binding
	PrevProvider key.Binding
	NextProvider key.Binding
	Send         key.Binding
	Load         key.Binding
	Up           key.Binding
	Down         key.Binding
	NewChat      key.Binding
	Refresh      key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		PrevProvider: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous provider")),
		NextProvider: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next provider")),
		Send:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Load:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open session")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NewChat:      key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Refresh:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh history")),
		ScrollUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

type historyLoadedMsg struct {
	epoch    int
	sessions []models.ChatSession
	err      error
}

// sentMsg reports a send. gen and epoch are the values current when the send
// started.
type sentMsg struct {
	gen   int
	epoch int
	conv  chatsvc.Conversation
	sent  bool
	err   error
}

// Model represents the chat screen.
type Model struct {
	chats   Chats
	timeout time.Duration

	conv       chatsvc.Conversation
	input      textinput.Model
	transcript viewport.Model
	focus      focusArea
	keys       keyMap
	sending    bool
	spinner    spinner.Model

	// gen changes whenever the active conversation is replaced; epoch
	// changes on sign-out. Results started under older values are stale.
	gen   int
	epoch int

	sessions []models.ChatSession
	cursor   int
	loaded   bool

	width  int
	height int
}

func New(chats Chats, timeout time.Duration) *Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Width = 60

	return &Model{
		chats:      chats,
		timeout:    timeout,
		input:      input,
		transcript: viewport.New(0, 0),
		keys:       defaultKeyMap(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m *Model) Init() tea.Cmd {
	m.updateFocus()
	return tea.Batch(m.loadHistory(), textinput.Blink)
}

// Conversation returns the active transcript.
func (m *Model) Conversation() chatsvc.Conversation {
	return m.conv
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		return m, m.handleHistory(msg)
	case sentMsg:
		return m, m.handleSent(msg)
	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case app.SignedOutMsg:
		m.gen++
		m.epoch++
		m.sending = false
		m.conv = chatsvc.Conversation{}
		m.sessions = nil
		m.loaded = false
		m.cursor = 0
		m.input.SetValue("")
		m.refreshTranscript()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % focusCount
		m.updateFocus()
		return textinput.Blink
	case key.Matches(msg, m.keys.NewChat):
		m.gen++
		m.conv = chatsvc.Conversation{Provider: m.conv.Provider}
		m.refreshTranscript()
		return nil
	case key.Matches(msg, m.keys.Refresh):
		return m.loadHistory()
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return cmd
	}

	switch m.focus {
	case focusProvider:
		switch {
		case key.Matches(msg, m.keys.PrevProvider):
			m.cycleProvider(-1)
		case key.Matches(msg, m.keys.NextProvider):
			m.cycleProvider(1)
		}
		return nil

	case focusHistory:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Load):
			m.loadSelected()
		}
		return nil
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// cycleProvider changes the provider of a conversation that has not
// started yet; a stored session keeps its provider.
func (m *Model) cycleProvider(step int) {
	if len(m.conv.Messages) > 0 {
		return
	}
	n := len(models.Providers)
	idx := -1
	for i, p := range models.Providers {
		if p == m.conv.Provider {
			idx = i
		}
	}
	switch {
	case idx < 0 && step > 0:
		idx = 0
	case idx < 0:
		idx = n - 1
	default:
		idx = (idx + step + n) % n
	}
	m.conv.Provider = models.Providers[idx]
}

// send is a no-op without a provider or text; nothing is called and nothing
// changes.
func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if m.sending || text == "" || m.conv.Provider == "" {
		return nil
	}
	m.sending = true

	chats, timeout, conv, gen, epoch := m.chats, m.timeout, m.conv, m.gen, m.epoch
	return tea.Batch(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		next, sent, err := chats.Send(ctx, conv, text)
		return sentMsg{gen: gen, epoch: epoch, conv: next, sent: sent, err: err}
	}, m.spinner.Tick)
}

func (m *Model) handleSent(msg sentMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		// Started by a user who has signed out since.
		return nil
	}
	m.sending = false
	if msg.gen != m.gen {
		// The conversation was replaced while the send was in flight. Only
		// the stored list reflects it.
		if msg.err != nil {
			return tea.Batch(app.ErrorCmd("Message not sent", msg.err), m.loadHistory())
		}
		return m.loadHistory()
	}
	switch {
	case errors.Is(msg.err, chatsvc.ErrDispatch):
		// The user's message was saved; only the reply is missing.
		m.conv = msg.conv
		m.input.SetValue("")
		m.refreshTranscript()
		return tea.Batch(app.ErrorCmd("No reply", msg.err), m.loadHistory())
	case msg.err != nil:
		return app.ErrorCmd("Message not sent", msg.err)
	case !msg.sent:
		return nil
	}
	m.conv = msg.conv
	m.input.SetValue("")
	m.refreshTranscript()
	return m.loadHistory()
}

// loadSelected replaces the transcript with the selected stored session.
func (m *Model) loadSelected() {
	if m.cursor < 0 || m.cursor >= len(m.sessions) {
		return
	}
	m.gen++
	m.conv = chatsvc.Load(m.sessions[m.cursor])
	m.refreshTranscript()
}

func (m *Model) loadHistory() tea.Cmd {
	chats, timeout, epoch := m.chats, m.timeout, m.epoch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sessions, err := chats.History(ctx)
		return historyLoadedMsg{epoch: epoch, sessions: sessions, err: err}
	}
}

func (m *Model) handleHistory(msg historyLoadedMsg) tea.Cmd {
	if msg.epoch != m.epoch {
		return nil
	}
	if msg.err != nil {
		return app.ErrorCmd("Could not load chat history", msg.err)
	}
	m.sessions = msg.sessions
	m.loaded = true
	if m.cursor >= len(m.sessions) {
		m.cursor = max(0, len(m.sessions)-1)
	}
	return nil
}

func (m *Model) updateFocus() {
	if m.focus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := max(20, width-historyWidth-4)
	m.input.Width = max(10, mainWidth-6)
	m.transcript.Width = mainWidth - 4
	m.transcript.Height = max(3, height-12)
	m.refreshTranscript()
}

func (m *Model) ShortHelp() []key.Binding {
	switch m.focus {
	case focusProvider:
		return []key.Binding{m.keys.PrevProvider, m.keys.NextProvider, m.keys.Next}
	case focusHistory:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Load, m.keys.Refresh}
	default:
		return []key.Binding{m.keys.Send, m.keys.NewChat, m.keys.Next}
	}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.NewChat, m.keys.Refresh},
		{m.keys.PrevProvider, m.keys.NextProvider, m.keys.Send},
		{m.keys.Up, m.keys.Down, m.keys.Load},
		{m.keys.ScrollUp, m.keys.ScrollDown},
	}
}
