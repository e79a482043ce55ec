// Package login is the sign-in screen.
package login

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/auth"
	"llmconnector/internal/models"
)

// Authenticator signs a user in.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
}

type formField int

const (
	fieldEmail formField = iota
	fieldPassword
	fieldSubmit
	fieldCount
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Register key.Binding
	Back     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
		Register: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "create an account")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

type resultMsg struct {
	user models.User
	err  error
}

// Model represents the sign-in screen.
type Model struct {
	auth    Authenticator
	timeout time.Duration

	email    textinput.Model
	password textinput.Model
	focus    formField
	keys     keyMap

	// err is the inline validation message.
	err        string
	submitting bool

	width  int
	height int
}

func New(a Authenticator, timeout time.Duration) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	return &Model{
		auth:     a,
		timeout:  timeout,
		email:    email,
		password: password,
		keys:     defaultKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.err = ""
	m.password.SetValue("")
	m.focus = fieldEmail
	m.updateFocus()
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return m, m.handleResult(msg)

	case app.SignedOutMsg:
		m.email.SetValue("")
		m.password.SetValue("")
		m.err = ""
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, app.Navigate(auth.RouteLanding)
		case key.Matches(msg, m.keys.Register):
			return m, app.Navigate(auth.RouteRegister)
		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % fieldCount
			m.updateFocus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Prev):
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
			m.updateFocus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Submit):
			if m.focus == fieldEmail {
				m.focus = fieldPassword
				m.updateFocus()
				return m, textinput.Blink
			}
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldEmail:
		m.email, cmd = m.email.Update(msg)
	case fieldPassword:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// submit validates locally and only then calls the auth API.
func (m *Model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	email, password := m.email.Value(), m.password.Value()
	if err := auth.ValidateCredentials(email, password); err != nil {
		m.err = err.Error()
		return nil
	}
	m.err = ""
	m.submitting = true

	a, timeout := m.auth, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		u, err := a.SignIn(ctx, email, password)
		return resultMsg{user: u, err: err}
	}
}

func (m *Model) handleResult(msg resultMsg) tea.Cmd {
	m.submitting = false
	m.password.SetValue("")
	if msg.err != nil {
		return app.NotifyError("Sign in failed: " + msg.err.Error())
	}
	m.email.SetValue("")
	return app.SignedIn(msg.user)
}

func (m *Model) updateFocus() {
	m.email.Blur()
	m.password.Blur()
	switch m.focus {
	case fieldEmail:
		m.email.Focus()
	case fieldPassword:
		m.password.Focus()
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Submit, m.keys.Register, m.keys.Back}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.Prev},
		{m.keys.Submit, m.keys.Register, m.keys.Back},
	}
}
