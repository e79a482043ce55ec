package repo

import (
	"context"
	"errors"
	"time"

	"llmconnector/internal/metrics"
	"llmconnector/internal/models"
	"llmconnector/internal/storage"
)

// NewSQL returns repositories backed by a direct database connection. The
// returned Set owns store and closes it.
func NewSQL(store *storage.Store, m *metrics.Metrics) *Set {
	return &Set{
		Keys:    sqlKeys{s: store, m: m},
		Chats:   sqlChats{s: store, m: m},
		Commits: sqlCommits{s: store, m: m},
		close:   store.Close,
	}
}

func observe(m *metrics.Metrics, table, op string, started time.Time, err error) {
	m.ObserveBackend(table, op, time.Since(started).Seconds(), err)
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

type sqlKeys struct {
	s *storage.Store
	m *metrics.Metrics
}

func (r sqlKeys) List(ctx context.Context, owner models.Owner) (out []models.APIKey, err error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	defer func(t time.Time) { observe(r.m, TableAPIKeys, "select", t, err) }(time.Now())
	return r.s.ListAPIKeys(ctx, owner.UserID)
}

func (r sqlKeys) Insert(ctx context.Context, owner models.Owner, provider models.Provider, key string) (out models.APIKey, err error) {
	if err := checkOwner(owner); err != nil {
		return models.APIKey{}, err
	}
	defer func(t time.Time) { observe(r.m, TableAPIKeys, "insert", t, err) }(time.Now())
	return r.s.InsertAPIKey(ctx, models.APIKey{UserID: owner.UserID, Provider: provider, KeyEncrypted: key})
}

func (r sqlKeys) Delete(ctx context.Context, owner models.Owner, id string) (out models.APIKey, err error) {
	if err := checkOwner(owner); err != nil {
		return models.APIKey{}, err
	}
	defer func(t time.Time) { observe(r.m, TableAPIKeys, "delete", t, err) }(time.Now())
	k, err := r.s.DeleteAPIKey(ctx, owner.UserID, id)
	return k, mapNotFound(err)
}

type sqlChats struct {
	s *storage.Store
	m *metrics.Metrics
}

func (r sqlChats) List(ctx context.Context, owner models.Owner) (out []models.ChatSession, err error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	defer func(t time.Time) { observe(r.m, TableChatHistory, "select", t, err) }(time.Now())
	return r.s.ListChatSessions(ctx, owner.UserID)
}

func (r sqlChats) Insert(ctx context.Context, owner models.Owner, cs models.ChatSession) (out models.ChatSession, err error) {
	if err := checkOwner(owner); err != nil {
		return models.ChatSession{}, err
	}
	defer func(t time.Time) { observe(r.m, TableChatHistory, "insert", t, err) }(time.Now())
	cs.ID = ""
	cs.UserID = owner.UserID
	cs.CreatedAt = time.Time{}
	return r.s.InsertChatSession(ctx, cs)
}

func (r sqlChats) Update(ctx context.Context, owner models.Owner, cs models.ChatSession) (err error) {
	if err := checkOwner(owner); err != nil {
		return err
	}
	defer func(t time.Time) { observe(r.m, TableChatHistory, "update", t, err) }(time.Now())
	cs.UserID = owner.UserID
	return mapNotFound(r.s.UpdateChatSession(ctx, cs))
}

type sqlCommits struct {
	s *storage.Store
	m *metrics.Metrics
}

func (r sqlCommits) Insert(ctx context.Context, owner models.Owner, c models.Commit) (out models.Commit, err error) {
	if err := checkOwner(owner); err != nil {
		return models.Commit{}, err
	}
	defer func(t time.Time) { observe(r.m, TableCommits, "insert", t, err) }(time.Now())
	c.ID = ""
	c.UserID = owner.UserID
	c.CreatedAt = time.Time{}
	return r.s.InsertCommit(ctx, c)
}

func (r sqlCommits) Recent(ctx context.Context, owner models.Owner, limit int) (out []models.Commit, err error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	defer func(t time.Time) { observe(r.m, TableCommits, "select", t, err) }(time.Now())
	return r.s.ListCommits(ctx, owner.UserID, limit)
}
