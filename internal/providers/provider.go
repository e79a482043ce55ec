// Package providers defines the chat call shared by the provider clients.
package providers

import (
	"context"
	"fmt"

	"llmconnector/internal/models"
)

type ChatRequest struct {
	Model     string
	System    string
	Messages  []models.Message
	MaxTokens int
}

type ChatResponse struct {
	Text string
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider models.Provider
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.Status, e.Message)
}
