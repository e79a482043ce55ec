package anthropic_messages

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"llmconnector/internal/models"
	"llmconnector/internal/providers"
)

func TestBuildParamsMapsRoles(t *testing.T) {
	params, err := buildParams(providers.ChatRequest{
		Model:  "claude-3-5-haiku-latest",
		System: "be brief",
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "hello"},
			{Role: models.RoleAssistant, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	if params.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", params.MaxTokens)
	}
	if len(params.Messages) != 2 || params.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected messages %+v", params.Messages)
	}
	if len(params.System) != 1 || params.System[0].Text != "be brief" {
		t.Fatalf("unexpected system %+v", params.System)
	}
}

func TestChatAgainstFakeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "sk-ant-test" {
			t.Errorf("missing api key header")
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "claude-3-5-haiku-latest" || len(body.Messages) != 1 {
			t.Errorf("unexpected request body %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"pong"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
	resp, err := c.Chat(context.Background(), providers.ChatRequest{
		Model:    "claude-3-5-haiku-latest",
		Messages: []models.Message{{Role: models.RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Text != "pong" {
		t.Fatalf("expected pong, got %q", resp.Text)
	}
}

func TestChatMapsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-ant-bad", BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), providers.ChatRequest{
		Model:    "claude-3-5-haiku-latest",
		Messages: []models.Message{{Role: models.RoleUser, Content: "ping"}},
	})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}
