package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"llmconnector/internal/models"
)

var (
	apiKeyColumns      = []string{"id", "user_id", "provider", "key_encrypted", "created_at"}
	chatSessionColumns = []string{"id", "user_id", "messages", "provider", "created_at"}
	commitColumns      = []string{"id", "user_id", "message", "changes", "created_at"}
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(r rowScanner) (models.APIKey, error) {
	var k models.APIKey
	var provider string
	if err := r.Scan(&k.ID, &k.UserID, &provider, &k.KeyEncrypted, &k.CreatedAt); err != nil {
		return models.APIKey{}, err
	}
	k.Provider = models.Provider(provider)
	return k, nil
}

func scanChatSession(r rowScanner) (models.ChatSession, error) {
	var s models.ChatSession
	var provider string
	var messages []byte
	if err := r.Scan(&s.ID, &s.UserID, &messages, &provider, &s.CreatedAt); err != nil {
		return models.ChatSession{}, err
	}
	s.Provider = models.Provider(provider)
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &s.Messages); err != nil {
			return models.ChatSession{}, fmt.Errorf("decode messages of chat %s: %w", s.ID, err)
		}
	}
	if s.Messages == nil {
		s.Messages = []models.Message{}
	}
	return s, nil
}

func scanCommit(r rowScanner) (models.Commit, error) {
	var c models.Commit
	var changes []byte
	if err := r.Scan(&c.ID, &c.UserID, &c.Message, &changes, &c.CreatedAt); err != nil {
		return models.Commit{}, err
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &c.Changes); err != nil {
			return models.Commit{}, fmt.Errorf("decode changes of commit %s: %w", c.ID, err)
		}
	}
	return c, nil
}

func encodeMessages(msgs []models.Message) (string, error) {
	if msgs == nil {
		msgs = []models.Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("encode messages: %w", err)
	}
	return string(b), nil
}

func encodeChanges(c models.Changes) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode changes: %w", err)
	}
	return string(b), nil
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC()
}
