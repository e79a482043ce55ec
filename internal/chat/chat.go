// Package chat keeps chat transcripts. A transcript is stored as one
// chat_history row that is rewritten whole on every send.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"llmconnector/internal/models"
	"llmconnector/internal/repo"
)

// ErrDispatch marks a failed provider call after the user's message was
// already saved.
var ErrDispatch = errors.New("provider call failed")

// Conversation is the active transcript. ID is empty until the first send
// creates the stored session.
type Conversation struct {
	ID       string
	Provider models.Provider
	Messages []models.Message
}

func (c Conversation) clone() Conversation {
	out := c
	out.Messages = append([]models.Message(nil), c.Messages...)
	return out
}

// OwnerSource yields the identity calls run as.
type OwnerSource interface {
	Owner(ctx context.Context) (models.Owner, error)
}

// Dispatcher produces the assistant reply for a transcript.
type Dispatcher interface {
	Reply(ctx context.Context, provider models.Provider, messages []models.Message) (string, error)
}

type Config struct {
	Chats  repo.ChatSessions
	Owners OwnerSource
	// Dispatcher is optional; without it transcripts are recorded only.
	Dispatcher Dispatcher
	Logger     zerolog.Logger
}

type Manager struct {
	chats      repo.ChatSessions
	owners     OwnerSource
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func New(cfg Config) *Manager {
	return &Manager{
		chats:      cfg.Chats,
		owners:     cfg.Owners,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}
}

// Dispatching reports whether sends are forwarded to the provider.
func (m *Manager) Dispatching() bool {
	return m.dispatcher != nil
}

// History returns the stored sessions, newest first.
func (m *Manager) History(ctx context.Context) ([]models.ChatSession, error) {
	owner, err := m.owners.Owner(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := m.chats.List(ctx, owner)
	if err != nil {
		m.logger.Error().Err(err).Msg("load chat history")
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return sessions, nil
}

// Send appends text as a user message and saves the whole transcript. It
// returns the conversation to display next and whether anything was sent.
// Blank text or a missing provider is a no-op. On a storage error conv is
// returned unchanged, so the caller's transcript never runs ahead of the
// stored one.
func (m *Manager) Send(ctx context.Context, conv Conversation, text string) (Conversation, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" || conv.Provider == "" {
		return conv, false, nil
	}

	owner, err := m.owners.Owner(ctx)
	if err != nil {
		return conv, false, err
	}

	next := conv.clone()
	next.Messages = append(next.Messages, models.Message{Role: models.RoleUser, Content: text})
	if next, err = m.save(ctx, owner, next); err != nil {
		return conv, false, err
	}

	if m.dispatcher == nil {
		return next, true, nil
	}

	reply, err := m.dispatcher.Reply(ctx, next.Provider, next.Messages)
	if err != nil {
		m.logger.Warn().Err(err).Str("provider", string(next.Provider)).Msg("dispatch chat")
		return next, true, fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	answered := next.clone()
	answered.Messages = append(answered.Messages, models.Message{Role: models.RoleAssistant, Content: reply})
	if answered, err = m.save(ctx, owner, answered); err != nil {
		return next, true, err
	}
	return answered, true, nil
}

func (m *Manager) save(ctx context.Context, owner models.Owner, conv Conversation) (Conversation, error) {
	session := models.ChatSession{
		ID:       conv.ID,
		Messages: conv.Messages,
		Provider: conv.Provider,
	}
	if conv.ID == "" {
		created, err := m.chats.Insert(ctx, owner, session)
		if err != nil {
			m.logger.Error().Err(err).Msg("create chat session")
			return Conversation{}, fmt.Errorf("save chat: %w", err)
		}
		conv.ID = created.ID
		return conv, nil
	}
	if err := m.chats.Update(ctx, owner, session); err != nil {
		m.logger.Error().Err(err).Str("chat_id", conv.ID).Msg("update chat session")
		return Conversation{}, fmt.Errorf("save chat: %w", err)
	}
	return conv, nil
}

// Load turns a stored session into the active conversation, preserving the
// message order.
func Load(s models.ChatSession) Conversation {
	return Conversation{
		ID:       s.ID,
		Provider: s.Provider,
		Messages: append([]models.Message(nil), s.Messages...),
	}
}
