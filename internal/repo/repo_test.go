package repo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"llmconnector/internal/baas"
	"llmconnector/internal/config"
	"llmconnector/internal/metrics"
	"llmconnector/internal/models"
	"llmconnector/internal/storage"
)

var owner = models.Owner{UserID: "u-1", AccessToken: "tok"}

func newSQLSet(t *testing.T) (*Set, *metrics.Metrics) {
	t.Helper()
	store, err := storage.Open(context.Background(), "sqlite", ":memory:", true)
	require.NoError(t, err)
	m := metrics.New()
	set := NewSQL(store, m)
	t.Cleanup(func() { _ = set.Close() })
	return set, m
}

func TestSQLKeysRoundTrip(t *testing.T) {
	ctx := context.Background()
	set, m := newSQLSet(t)

	k, err := set.Keys.Insert(ctx, owner, models.ProviderOpenAI, "sk-abcdefghijklmnopqrstuvwxyz")
	require.NoError(t, err)
	require.Equal(t, owner.UserID, k.UserID)

	keys, err := set.Keys.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	removed, err := set.Keys.Delete(ctx, owner, k.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProviderOpenAI, removed.Provider)

	_, err = set.Keys.Delete(ctx, owner, k.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, float64(1), testutil.ToFloat64(m.BackendRequests.WithLabelValues(TableAPIKeys, "delete", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.BackendRequests.WithLabelValues(TableAPIKeys, "delete", "error")))
}

func TestSQLChatsAndCommits(t *testing.T) {
	ctx := context.Background()
	set, _ := newSQLSet(t)

	cs, err := set.Chats.Insert(ctx, owner, models.ChatSession{
		Provider: models.ProviderAnthropic,
		Messages: []models.Message{{Role: models.RoleUser, Content: "one"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, cs.ID)

	cs.Messages = append(cs.Messages, models.Message{Role: models.RoleUser, Content: "two"})
	require.NoError(t, set.Chats.Update(ctx, owner, cs))

	other := models.Owner{UserID: "u-2"}
	require.ErrorIs(t, set.Chats.Update(ctx, other, cs), ErrNotFound)

	list, err := set.Chats.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []models.Message{{Role: models.RoleUser, Content: "one"}, {Role: models.RoleUser, Content: "two"}}, list[0].Messages)

	_, err = set.Commits.Insert(ctx, owner, models.Commit{Message: "Add anthropic API key", Changes: models.Changes{Action: "add", Files: 1}})
	require.NoError(t, err)
	commits, err := set.Commits.Recent(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "Add anthropic API key", commits[0].Message)
}

func TestRepositoriesRequireOwner(t *testing.T) {
	set, _ := newSQLSet(t)
	_, err := set.Keys.List(context.Background(), models.Owner{})
	require.ErrorIs(t, err, ErrNoOwner)
	_, err = set.Commits.Recent(context.Background(), models.Owner{}, 10)
	require.ErrorIs(t, err, ErrNoOwner)
}

func newRESTSet(t *testing.T, h http.HandlerFunc) *Set {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := baas.New(baas.Config{URL: srv.URL, AnonKey: "anon"})
	require.NoError(t, err)
	return NewREST(c)
}

func TestRESTDeleteMissingIsNotFound(t *testing.T) {
	set := newRESTSet(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "eq.k-404", r.URL.Query().Get("id"))
		require.Equal(t, "eq.u-1", r.URL.Query().Get("user_id"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := set.Keys.Delete(context.Background(), owner, "k-404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRESTInsertKeySendsOwner(t *testing.T) {
	set := newRESTSet(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "u-1", body["user_id"])
		require.Equal(t, "google", body["provider"])
		require.NotContains(t, body, "id")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"k-1","user_id":"u-1","provider":"google","key_encrypted":"AIza"}]`)
	})

	k, err := set.Keys.Insert(context.Background(), owner, models.ProviderGoogle, "AIza")
	require.NoError(t, err)
	require.Equal(t, "k-1", k.ID)
}

func TestRESTChatUpdateOmitsOwnerColumn(t *testing.T) {
	set := newRESTSet(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotContains(t, body, "user_id")
		require.Len(t, body["messages"], 1)
		_, _ = io.WriteString(w, `[{"id":"c-1"}]`)
	})

	err := set.Chats.Update(context.Background(), owner, models.ChatSession{
		ID:       "c-1",
		Provider: models.ProviderOpenAI,
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestOpenSelectsBackend(t *testing.T) {
	c, err := baas.New(baas.Config{URL: "http://localhost", AnonKey: "anon"})
	require.NoError(t, err)

	cfg := &config.Config{Backend: config.BackendConfig{Data: config.DataBackendREST}}
	set, err := Open(context.Background(), cfg, c, metrics.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, restKeys{}, set.Keys)

	cfg = &config.Config{
		Backend: config.BackendConfig{Data: config.DataBackendSQL},
		DB:      config.DBConfig{Driver: "sqlite", DSN: ":memory:", AutoMigrate: true},
	}
	set, err = Open(context.Background(), cfg, c, metrics.New(), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, sqlKeys{}, set.Keys)
	require.NoError(t, set.Close())

	cfg = &config.Config{Backend: config.BackendConfig{Data: "nope"}}
	_, err = Open(context.Background(), cfg, c, metrics.New(), zerolog.Nop())
	require.ErrorIs(t, err, config.ErrInvalidDataBackend)
}
