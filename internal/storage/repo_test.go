package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"llmconnector/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:", true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAPIKeysListNewestFirstAndScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.InsertAPIKey(ctx, models.APIKey{UserID: "u1", Provider: models.ProviderOpenAI, KeyEncrypted: "sk-one", CreatedAt: base})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := s.InsertAPIKey(ctx, models.APIKey{UserID: "u1", Provider: models.ProviderAnthropic, KeyEncrypted: "sk-ant-two", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertAPIKey(ctx, models.APIKey{UserID: "u2", Provider: models.ProviderGoogle, KeyEncrypted: "AIza", CreatedAt: base}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	keys, err := s.ListAPIKeys(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].Provider != models.ProviderAnthropic || keys[1].Provider != models.ProviderOpenAI {
		t.Fatalf("unexpected order: %+v", keys)
	}
	if !keys[1].CreatedAt.Equal(base) {
		t.Fatalf("created_at round trip: got %v", keys[1].CreatedAt)
	}

	empty, err := s.ListAPIKeys(ctx, "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestDeleteAPIKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	k, err := s.InsertAPIKey(ctx, models.APIKey{UserID: "u1", Provider: models.ProviderGoogle, KeyEncrypted: "AIza-x"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := s.DeleteAPIKey(ctx, "u2", k.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}

	deleted, err := s.DeleteAPIKey(ctx, "u1", k.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Provider != models.ProviderGoogle {
		t.Fatalf("expected deleted row back, got %+v", deleted)
	}

	if _, err := s.DeleteAPIKey(ctx, "u1", k.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestChatSessionInsertUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	cs, err := s.InsertChatSession(ctx, models.ChatSession{
		UserID:   "u1",
		Provider: models.ProviderOpenAI,
		Messages: []models.Message{{Role: models.RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	cs.Messages = append(cs.Messages,
		models.Message{Role: models.RoleAssistant, Content: "hi"},
		models.Message{Role: models.RoleUser, Content: "again"},
	)
	if err := s.UpdateChatSession(ctx, cs); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := s.ListChatSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one session, got %d", len(list))
	}
	got := list[0].Messages
	if len(got) != 3 || got[0].Content != "hello" || got[1].Role != models.RoleAssistant || got[2].Content != "again" {
		t.Fatalf("unexpected transcript: %+v", got)
	}

	missing := models.ChatSession{ID: "nope", UserID: "u1"}
	if err := s.UpdateChatSession(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCommitsLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		_, err := s.InsertCommit(ctx, models.Commit{
			UserID:    "u1",
			Message:   "Add openai API key",
			Changes:   models.Changes{Action: "add", Table: "api_keys", Provider: models.ProviderOpenAI, Files: 1},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("insert commit %d: %v", i, err)
		}
	}

	commits, err := s.ListCommits(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(commits) != 10 {
		t.Fatalf("expected 10 commits, got %d", len(commits))
	}
	if !commits[0].CreatedAt.Equal(base.Add(11 * time.Second)) {
		t.Fatalf("expected newest first, got %v", commits[0].CreatedAt)
	}
	if commits[0].Changes.Table != "api_keys" || commits[0].Changes.Files != 1 {
		t.Fatalf("changes round trip: %+v", commits[0].Changes)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "dsn", true); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNormalizeDriver(t *testing.T) {
	cases := map[string]string{"pgx": "postgres", "PostgreSQL": "postgres", "sqlite3": "sqlite", " sqlite ": "sqlite"}
	for in, want := range cases {
		if got := normalizeDriver(in); got != want {
			t.Fatalf("normalizeDriver(%q) = %q, want %q", in, got, want)
		}
	}
}
