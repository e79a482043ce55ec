package repo

import (
	"context"
	"fmt"

	"llmconnector/internal/baas"
	"llmconnector/internal/models"
)

// NewREST returns repositories backed by the hosted data API. Row-level
// access is enforced remotely with the owner's access token; the user_id
// filters are sent as well so a misconfigured policy cannot leak rows.
func NewREST(c *baas.Client) *Set {
	return &Set{
		Keys:    restKeys{c: c},
		Chats:   restChats{c: c},
		Commits: restCommits{c: c},
	}
}

type restKeys struct{ c *baas.Client }

func (r restKeys) List(ctx context.Context, owner models.Owner) ([]models.APIKey, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	rows := make([]models.APIKey, 0)
	err := r.c.From(TableAPIKeys, owner.AccessToken).
		Select("*").
		Eq("user_id", owner.UserID).
		Order("created_at", false).
		Do(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r restKeys) Insert(ctx context.Context, owner models.Owner, provider models.Provider, key string) (models.APIKey, error) {
	if err := checkOwner(owner); err != nil {
		return models.APIKey{}, err
	}
	row := struct {
		UserID       string          `json:"user_id"`
		Provider     models.Provider `json:"provider"`
		KeyEncrypted string          `json:"key_encrypted"`
	}{owner.UserID, provider, key}

	var rows []models.APIKey
	if err := r.c.From(TableAPIKeys, owner.AccessToken).Insert(row).Do(ctx, &rows); err != nil {
		return models.APIKey{}, err
	}
	if len(rows) == 0 {
		return models.APIKey{}, fmt.Errorf("insert %s: no row returned", TableAPIKeys)
	}
	return rows[0], nil
}

func (r restKeys) Delete(ctx context.Context, owner models.Owner, id string) (models.APIKey, error) {
	if err := checkOwner(owner); err != nil {
		return models.APIKey{}, err
	}
	var rows []models.APIKey
	err := r.c.From(TableAPIKeys, owner.AccessToken).
		Eq("id", id).
		Eq("user_id", owner.UserID).
		Delete().
		Do(ctx, &rows)
	if err != nil {
		return models.APIKey{}, err
	}
	if len(rows) == 0 {
		return models.APIKey{}, ErrNotFound
	}
	return rows[0], nil
}

type restChats struct{ c *baas.Client }

func (r restChats) List(ctx context.Context, owner models.Owner) ([]models.ChatSession, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	rows := make([]models.ChatSession, 0)
	err := r.c.From(TableChatHistory, owner.AccessToken).
		Select("*").
		Eq("user_id", owner.UserID).
		Order("created_at", false).
		Do(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type chatRow struct {
	UserID   string           `json:"user_id,omitempty"`
	Messages []models.Message `json:"messages"`
	Provider models.Provider  `json:"provider"`
}

func (r restChats) Insert(ctx context.Context, owner models.Owner, s models.ChatSession) (models.ChatSession, error) {
	if err := checkOwner(owner); err != nil {
		return models.ChatSession{}, err
	}
	var rows []models.ChatSession
	row := chatRow{UserID: owner.UserID, Messages: nonNil(s.Messages), Provider: s.Provider}
	if err := r.c.From(TableChatHistory, owner.AccessToken).Insert(row).Do(ctx, &rows); err != nil {
		return models.ChatSession{}, err
	}
	if len(rows) == 0 {
		return models.ChatSession{}, fmt.Errorf("insert %s: no row returned", TableChatHistory)
	}
	return rows[0], nil
}

func (r restChats) Update(ctx context.Context, owner models.Owner, s models.ChatSession) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	var rows []models.ChatSession
	err := r.c.From(TableChatHistory, owner.AccessToken).
		Update(chatRow{Messages: nonNil(s.Messages), Provider: s.Provider}).
		Eq("id", s.ID).
		Eq("user_id", owner.UserID).
		Do(ctx, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

type restCommits struct{ c *baas.Client }

func (r restCommits) Insert(ctx context.Context, owner models.Owner, c models.Commit) (models.Commit, error) {
	if err := checkOwner(owner); err != nil {
		return models.Commit{}, err
	}
	row := struct {
		UserID  string         `json:"user_id"`
		Message string         `json:"message"`
		Changes models.Changes `json:"changes"`
	}{owner.UserID, c.Message, c.Changes}

	var rows []models.Commit
	if err := r.c.From(TableCommits, owner.AccessToken).Insert(row).Do(ctx, &rows); err != nil {
		return models.Commit{}, err
	}
	if len(rows) == 0 {
		return models.Commit{}, fmt.Errorf("insert %s: no row returned", TableCommits)
	}
	return rows[0], nil
}

func (r restCommits) Recent(ctx context.Context, owner models.Owner, limit int) ([]models.Commit, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	q := r.c.From(TableCommits, owner.AccessToken).
		Select("*").
		Eq("user_id", owner.UserID).
		Order("created_at", false)
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := make([]models.Commit, 0)
	if err := q.Do(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func nonNil(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return msgs
}
