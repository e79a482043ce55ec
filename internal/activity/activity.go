// Package activity records and reads the commit-style audit log.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"llmconnector/internal/models"
	"llmconnector/internal/repo"
)

// RecentLimit is how many commits the history shows.
const RecentLimit = 10

// OwnerSource yields the identity calls run as.
type OwnerSource interface {
	Owner(ctx context.Context) (models.Owner, error)
}

type Config struct {
	Commits repo.Commits
	Owners  OwnerSource
	Logger  zerolog.Logger
}

type Log struct {
	commits repo.Commits
	owners  OwnerSource
	logger  zerolog.Logger
}

func New(cfg Config) *Log {
	return &Log{commits: cfg.Commits, owners: cfg.Owners, logger: cfg.Logger}
}

// Record appends one commit for the current owner.
func (l *Log) Record(ctx context.Context, message string, changes models.Changes) (models.Commit, error) {
	owner, err := l.owners.Owner(ctx)
	if err != nil {
		return models.Commit{}, err
	}
	c, err := l.commits.Insert(ctx, owner, models.Commit{Message: message, Changes: changes})
	if err != nil {
		l.logger.Error().Err(err).Str("action", changes.Action).Msg("record commit")
		return models.Commit{}, fmt.Errorf("record commit: %w", err)
	}
	return c, nil
}

// Recent returns the newest commits, at most RecentLimit.
func (l *Log) Recent(ctx context.Context) ([]models.Commit, error) {
	owner, err := l.owners.Owner(ctx)
	if err != nil {
		return nil, err
	}
	commits, err := l.commits.Recent(ctx, owner, RecentLimit)
	if err != nil {
		l.logger.Error().Err(err).Msg("load commits")
		return nil, fmt.Errorf("load commits: %w", err)
	}
	if len(commits) > RecentLimit {
		commits = commits[:RecentLimit]
	}
	return commits, nil
}

// AddedKeyMessage and RemovedKeyMessage are the commit messages for key
// changes.
func AddedKeyMessage(p models.Provider) string {
	return fmt.Sprintf("Add %s API key", p)
}

func RemovedKeyMessage(p models.Provider) string {
	return fmt.Sprintf("Remove %s API key", p)
}

// AbsoluteTime renders t like "Jan 2, 2006".
func AbsoluteTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}

// RelativeTime renders t relative to now, like "3 minutes ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FilesChanged renders the change count of a commit.
func FilesChanged(c models.Changes) string {
	n := c.Files
	if n <= 0 {
		n = 1
	}
	if n == 1 {
		return "1 file changed"
	}
	return fmt.Sprintf("%d files changed", n)
}
