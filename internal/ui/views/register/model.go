// Package register is the account creation screen.
package register

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/auth"
	"llmconnector/internal/models"
)

// Registrar creates accounts.
type Registrar interface {
	SignUp(ctx context.Context, email, password, confirm string) (models.User, error)
}

type formField int

const (
	fieldEmail formField = iota
	fieldPassword
	fieldConfirm
	fieldSubmit
	fieldCount
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Login  key.Binding
	Back   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "register")),
		Login:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "sign in instead")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

type resultMsg struct {
	user models.User
	err  error
}

// Model represents the registration screen.
type Model struct {
	registrar Registrar
	timeout   time.Duration

	inputs []textinput.Model
	focus  formField
	keys   keyMap

	err        string
	submitting bool

	width  int
	height int
}

func New(r Registrar, timeout time.Duration) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40

	password := textinput.New()
	password.Placeholder = "At least 6 characters"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Placeholder = "Repeat password"
	confirm.CharLimit = 128
	confirm.Width = 40
	confirm.EchoMode = textinput.EchoPassword

	return &Model{
		registrar: r,
		timeout:   timeout,
		inputs:    []textinput.Model{email, password, confirm},
		keys:      defaultKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.err = ""
	m.inputs[fieldPassword].SetValue("")
	m.inputs[fieldConfirm].SetValue("")
	m.focus = fieldEmail
	m.updateFocus()
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return m, m.handleResult(msg)

	case app.SignedOutMsg:
		m.reset()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, app.Navigate(auth.RouteLanding)
		case key.Matches(msg, m.keys.Login):
			return m, app.Navigate(auth.RouteLogin)
		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % fieldCount
			m.updateFocus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Prev):
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
			m.updateFocus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Submit):
			if m.focus < fieldConfirm {
				m.focus++
				m.updateFocus()
				return m, textinput.Blink
			}
			return m, m.submit()
		}
	}

	if m.focus < fieldSubmit {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	email := m.inputs[fieldEmail].Value()
	password := m.inputs[fieldPassword].Value()
	confirm := m.inputs[fieldConfirm].Value()

	if err := auth.ValidateCredentials(email, password); err != nil {
		m.err = err.Error()
		return nil
	}
	if password != confirm {
		m.err = auth.ErrPasswordMismatch.Error()
		return nil
	}
	m.err = ""
	m.submitting = true

	r, timeout := m.registrar, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		u, err := r.SignUp(ctx, email, password, confirm)
		return resultMsg{user: u, err: err}
	}
}

func (m *Model) handleResult(msg resultMsg) tea.Cmd {
	m.submitting = false
	switch {
	case errors.Is(msg.err, auth.ErrConfirmationRequired):
		m.reset()
		return tea.Batch(
			app.NotifyInfo("Account created. Check your inbox to confirm your email, then sign in."),
			app.Navigate(auth.RouteLogin),
		)
	case msg.err != nil:
		m.inputs[fieldPassword].SetValue("")
		m.inputs[fieldConfirm].SetValue("")
		return app.NotifyError("Registration failed: " + msg.err.Error())
	}
	m.reset()
	return app.SignedIn(msg.user)
}

func (m *Model) reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.err = ""
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if formField(i) == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Submit, m.keys.Login, m.keys.Back}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.Prev},
		{m.keys.Submit, m.keys.Login, m.keys.Back},
	}
}
