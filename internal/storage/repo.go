package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"llmconnector/internal/models"
)

var ErrNotFound = errors.New("not found")

func (s *Store) InsertAPIKey(ctx context.Context, k models.APIKey) (models.APIKey, error) {
	if strings.TrimSpace(k.UserID) == "" {
		return models.APIKey{}, fmt.Errorf("insert api key: user id is empty")
	}
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	k.CreatedAt = s.stamp(k.CreatedAt)

	q := s.sql.Insert("api_keys").
		Columns(apiKeyColumns...).
		Values(k.ID, k.UserID, string(k.Provider), k.KeyEncrypted, k.CreatedAt)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return models.APIKey{}, fmt.Errorf("build insert api key query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return models.APIKey{}, fmt.Errorf("insert api key: %w", err)
	}
	return k, nil
}

func (s *Store) ListAPIKeys(ctx context.Context, userID string) ([]models.APIKey, error) {
	q := s.sql.Select(apiKeyColumns...).
		From("api_keys").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list api keys query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	out := make([]models.APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key row: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api key rows: %w", err)
	}
	return out, nil
}

// DeleteAPIKey removes the key and returns the deleted row.
func (s *Store) DeleteAPIKey(ctx context.Context, userID, id string) (models.APIKey, error) {
	q := s.sql.Delete("api_keys").
		Where(sq.Eq{"user_id": userID, "id": id}).
		Suffix("RETURNING " + strings.Join(apiKeyColumns, ", "))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return models.APIKey{}, fmt.Errorf("build delete api key query: %w", err)
	}
	k, err := scanAPIKey(s.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.APIKey{}, ErrNotFound
		}
		return models.APIKey{}, fmt.Errorf("delete api key: %w", err)
	}
	return k, nil
}

func (s *Store) InsertChatSession(ctx context.Context, cs models.ChatSession) (models.ChatSession, error) {
	if strings.TrimSpace(cs.UserID) == "" {
		return models.ChatSession{}, fmt.Errorf("insert chat session: user id is empty")
	}
	if cs.ID == "" {
		cs.ID = uuid.NewString()
	}
	cs.CreatedAt = s.stamp(cs.CreatedAt)
	msgs, err := encodeMessages(cs.Messages)
	if err != nil {
		return models.ChatSession{}, err
	}

	q := s.sql.Insert("chat_history").
		Columns(chatSessionColumns...).
		Values(cs.ID, cs.UserID, msgs, string(cs.Provider), cs.CreatedAt)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("build insert chat session query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return models.ChatSession{}, fmt.Errorf("insert chat session: %w", err)
	}
	return cs, nil
}

// UpdateChatSession rewrites the transcript and provider of an existing
// session.
func (s *Store) UpdateChatSession(ctx context.Context, cs models.ChatSession) error {
	msgs, err := encodeMessages(cs.Messages)
	if err != nil {
		return err
	}
	q := s.sql.Update("chat_history").
		Set("messages", msgs).
		Set("provider", string(cs.Provider)).
		Where(sq.Eq{"user_id": cs.UserID, "id": cs.ID})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update chat session query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("update chat session: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	q := s.sql.Select(chatSessionColumns...).
		From("chat_history").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list chat sessions query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChatSession, 0)
	for rows.Next() {
		cs, err := scanChatSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat session row: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat session rows: %w", err)
	}
	return out, nil
}

func (s *Store) InsertCommit(ctx context.Context, c models.Commit) (models.Commit, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return models.Commit{}, fmt.Errorf("insert commit: user id is empty")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.stamp(c.CreatedAt)
	changes, err := encodeChanges(c.Changes)
	if err != nil {
		return models.Commit{}, err
	}

	q := s.sql.Insert("commits").
		Columns(commitColumns...).
		Values(c.ID, c.UserID, c.Message, changes, c.CreatedAt)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return models.Commit{}, fmt.Errorf("build insert commit query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return models.Commit{}, fmt.Errorf("insert commit: %w", err)
	}
	return c, nil
}

// ListCommits returns the newest commits first; limit <= 0 means no limit.
func (s *Store) ListCommits(ctx context.Context, userID string, limit int) ([]models.Commit, error) {
	q := s.sql.Select(commitColumns...).
		From("commits").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list commits query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	out := make([]models.Commit, 0)
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commit row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commit rows: %w", err)
	}
	return out, nil
}
