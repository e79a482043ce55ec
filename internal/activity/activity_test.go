package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"llmconnector/internal/models"
)

type staticOwner struct {
	owner models.Owner
	err   error
}

func (s staticOwner) Owner(context.Context) (models.Owner, error) { return s.owner, s.err }

type memCommits struct {
	rows      []models.Commit
	lastLimit int
	failNext  bool
}

func (m *memCommits) Insert(_ context.Context, o models.Owner, c models.Commit) (models.Commit, error) {
	if m.failNext {
		m.failNext = false
		return models.Commit{}, errors.New("insert failed")
	}
	c.UserID = o.UserID
	m.rows = append([]models.Commit{c}, m.rows...)
	return c, nil
}

func (m *memCommits) Recent(_ context.Context, _ models.Owner, limit int) ([]models.Commit, error) {
	m.lastLimit = limit
	return m.rows, nil
}

func TestRecentAsksForTenAndTruncates(t *testing.T) {
	store := &memCommits{}
	for i := 0; i < 15; i++ {
		store.rows = append(store.rows, models.Commit{Message: "x"})
	}
	l := New(Config{Commits: store, Owners: staticOwner{owner: models.Owner{UserID: "u"}}, Logger: zerolog.Nop()})

	got, err := l.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, got, RecentLimit)
	require.Equal(t, RecentLimit, store.lastLimit)
}

func TestRecordRequiresOwner(t *testing.T) {
	store := &memCommits{}
	l := New(Config{Commits: store, Owners: staticOwner{err: errors.New("not signed in")}, Logger: zerolog.Nop()})

	_, err := l.Record(context.Background(), "Add openai API key", models.Changes{})
	require.Error(t, err)
	require.Empty(t, store.rows)
}

func TestRecordWrapsErrors(t *testing.T) {
	store := &memCommits{failNext: true}
	l := New(Config{Commits: store, Owners: staticOwner{owner: models.Owner{UserID: "u"}}, Logger: zerolog.Nop()})

	_, err := l.Record(context.Background(), "Add openai API key", models.Changes{})
	require.ErrorContains(t, err, "record commit")
}

func TestFormatting(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

	require.Equal(t, "Add google API key", AddedKeyMessage(models.ProviderGoogle))
	require.Equal(t, "Remove anthropic API key", RemovedKeyMessage(models.ProviderAnthropic))
	require.Equal(t, "May 30, 2025", AbsoluteTime(now.Add(-48*time.Hour)))
	require.Equal(t, "3 minutes ago", RelativeTime(now.Add(-3*time.Minute), now))
	require.Equal(t, "1 file changed", FilesChanged(models.Changes{Files: 1}))
	require.Equal(t, "1 file changed", FilesChanged(models.Changes{}))
	require.Equal(t, "4 files changed", FilesChanged(models.Changes{Files: 4}))
	require.Empty(t, AbsoluteTime(time.Time{}))
}
