// Package repo defines the per-table contract the services depend on, with
// one implementation over the hosted data API and one over a direct SQL
// connection.
package repo

import (
	"context"
	"errors"
	"strings"

	"llmconnector/internal/models"
)

const (
	TableAPIKeys     = "api_keys"
	TableChatHistory = "chat_history"
	TableCommits     = "commits"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNoOwner  = errors.New("no signed-in owner")
)

type APIKeys interface {
	// List returns the owner's keys, newest first.
	List(ctx context.Context, owner models.Owner) ([]models.APIKey, error)
	Insert(ctx context.Context, owner models.Owner, provider models.Provider, key string) (models.APIKey, error)
	// Delete removes the key and returns the removed row, or ErrNotFound.
	Delete(ctx context.Context, owner models.Owner, id string) (models.APIKey, error)
}

type ChatSessions interface {
	// List returns the owner's sessions, newest first.
	List(ctx context.Context, owner models.Owner) ([]models.ChatSession, error)
	Insert(ctx context.Context, owner models.Owner, s models.ChatSession) (models.ChatSession, error)
	// Update rewrites the transcript of an existing session.
	Update(ctx context.Context, owner models.Owner, s models.ChatSession) error
}

type Commits interface {
	Insert(ctx context.Context, owner models.Owner, c models.Commit) (models.Commit, error)
	// Recent returns up to limit commits, newest first.
	Recent(ctx context.Context, owner models.Owner, limit int) ([]models.Commit, error)
}

// Set bundles the three repositories of one data backend.
type Set struct {
	Keys    APIKeys
	Chats   ChatSessions
	Commits Commits

	close func() error
}

func (s *Set) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func checkOwner(owner models.Owner) error {
	if strings.TrimSpace(owner.UserID) == "" {
		return ErrNoOwner
	}
	return nil
}
