// Package keys manages the provider API keys of the signed-in user. Every
// successful add or delete leaves exactly one commit in the activity log.
package keys

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"llmconnector/internal/activity"
	"llmconnector/internal/models"
	"llmconnector/internal/repo"
)

var (
	ErrUnknownProvider = errors.New("select a provider")
	ErrInvalidKey      = errors.New("invalid API key format")
)

var keyPatterns = map[models.Provider]*regexp.Regexp{
	models.ProviderOpenAI:    regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
	models.ProviderAnthropic: regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]{20,}$`),
	models.ProviderGoogle:    regexp.MustCompile(`^AIza[A-Za-z0-9_-]{35}$`),
}

// Validate checks provider and key format locally and returns the normalized
// provider and key.
func Validate(provider, key string) (models.Provider, string, error) {
	p, ok := models.ParseProvider(provider)
	if !ok {
		return "", "", ErrUnknownProvider
	}
	key = strings.TrimSpace(key)
	if !keyPatterns[p].MatchString(key) {
		return "", "", fmt.Errorf("%w for %s", ErrInvalidKey, p.Label())
	}
	return p, key, nil
}

// OwnerSource yields the identity calls run as.
type OwnerSource interface {
	Owner(ctx context.Context) (models.Owner, error)
}

// Recorder appends commits to the activity log; *activity.Log implements it.
type Recorder interface {
	Record(ctx context.Context, message string, changes models.Changes) (models.Commit, error)
}

type Config struct {
	Keys     repo.APIKeys
	Activity Recorder
	Owners   OwnerSource
	Logger   zerolog.Logger
}

type Manager struct {
	keys     repo.APIKeys
	activity Recorder
	owners   OwnerSource
	logger   zerolog.Logger
}

func New(cfg Config) *Manager {
	return &Manager{
		keys:     cfg.Keys,
		activity: cfg.Activity,
		owners:   cfg.Owners,
		logger:   cfg.Logger,
	}
}

// List returns the owner's keys, newest first.
func (m *Manager) List(ctx context.Context) ([]models.APIKey, error) {
	owner, err := m.owners.Owner(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := m.keys.List(ctx, owner)
	if err != nil {
		m.logger.Error().Err(err).Msg("list api keys")
		return nil, fmt.Errorf("load API keys: %w", err)
	}
	if keys == nil {
		keys = []models.APIKey{}
	}
	return keys, nil
}

// Add validates and stores a key, then records the commit. If the commit
// cannot be written the key is removed again.
func (m *Manager) Add(ctx context.Context, provider, key string) (models.APIKey, error) {
	p, key, err := Validate(provider, key)
	if err != nil {
		return models.APIKey{}, err
	}
	owner, err := m.owners.Owner(ctx)
	if err != nil {
		return models.APIKey{}, err
	}

	stored, err := m.keys.Insert(ctx, owner, p, key)
	if err != nil {
		m.logger.Error().Err(err).Str("provider", string(p)).Msg("insert api key")
		return models.APIKey{}, fmt.Errorf("add API key: %w", err)
	}

	_, err = m.activity.Record(ctx, activity.AddedKeyMessage(p),
		models.Changes{Action: "add", Table: repo.TableAPIKeys, Provider: p, RecordID: stored.ID, Files: 1})
	if err != nil {
		m.logger.Error().Err(err).Str("key_id", stored.ID).Msg("record key addition, rolling back")
		if _, rbErr := m.keys.Delete(ctx, owner, stored.ID); rbErr != nil {
			m.logger.Error().Err(rbErr).Str("key_id", stored.ID).Msg("roll back api key")
			return models.APIKey{}, fmt.Errorf("add API key: %w (rollback failed: %v)", err, rbErr)
		}
		return models.APIKey{}, fmt.Errorf("add API key: %w", err)
	}

	m.logger.Info().Str("provider", string(p)).Str("key_id", stored.ID).Msg("api key added")
	return stored, nil
}

// Delete removes a key by id and records the commit. A missing id returns
// repo.ErrNotFound and writes nothing.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return repo.ErrNotFound
	}
	owner, err := m.owners.Owner(ctx)
	if err != nil {
		return err
	}

	removed, err := m.keys.Delete(ctx, owner, id)
	if err != nil {
		m.logger.Error().Err(err).Str("key_id", id).Msg("delete api key")
		return fmt.Errorf("delete API key: %w", err)
	}

	_, err = m.activity.Record(ctx, activity.RemovedKeyMessage(removed.Provider),
		models.Changes{Action: "remove", Table: repo.TableAPIKeys, Provider: removed.Provider, RecordID: removed.ID, Files: 1})
	if err != nil {
		// The key is already gone and cannot be restored with its id.
		m.logger.Error().Err(err).Str("key_id", id).Msg("record key removal")
		return fmt.Errorf("delete API key: %w", err)
	}

	m.logger.Info().Str("provider", string(removed.Provider)).Str("key_id", id).Msg("api key removed")
	return nil
}

// Newest returns the most recently stored key for provider.
func (m *Manager) Newest(ctx context.Context, p models.Provider) (models.APIKey, error) {
	keys, err := m.List(ctx)
	if err != nil {
		return models.APIKey{}, err
	}
	for _, k := range keys {
		if k.Provider == p {
			return k, nil
		}
	}
	return models.APIKey{}, fmt.Errorf("no %s API key stored: %w", p.Label(), repo.ErrNotFound)
}
