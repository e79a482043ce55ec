// Package models holds the rows the connector reads from and writes to the
// backend tables, plus the identity that scopes every call.
package models

import (
	"strings"
	"time"
)

// Provider names an external AI service.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderAnthropic Provider = "anthropic"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderOpenAI, ProviderGoogle, ProviderAnthropic}

// ParseProvider normalizes s and reports whether it names a supported provider.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Label returns the human readable provider name.
func (p Provider) Label() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGoogle:
		return "Google AI"
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return string(p)
	}
}

// Owner identifies the signed-in user on whose behalf a repository call runs.
// AccessToken is forwarded to the hosted data API, which enforces row-level
// access with it.
type Owner struct {
	UserID      string
	AccessToken string
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// APIKey is a row of the api_keys table.
type APIKey struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Provider     Provider  `json:"provider"`
	KeyEncrypted string    `json:"key_encrypted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Masked renders the key without revealing its material.
func (k APIKey) Masked() string {
	return strings.Repeat("•", 16)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatSession is a row of the chat_history table. Messages is stored as one
// JSON array and always rewritten whole.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Messages  []Message `json:"messages"`
	Provider  Provider  `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// LastMessage returns the content of the final message, or "".
func (s ChatSession) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}

// Changes describes what a commit did.
type Changes struct {
	Action   string   `json:"action"`
	Table    string   `json:"table"`
	Provider Provider `json:"provider,omitempty"`
	RecordID string   `json:"record_id,omitempty"`
	Files    int      `json:"files"`
}

// Commit is a row of the append-only commits table.
type Commit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Changes   Changes   `json:"changes"`
	CreatedAt time.Time `json:"created_at"`
}
