package chat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"llmconnector/internal/models"
	"llmconnector/internal/providers"
	"llmconnector/internal/providers/registry"
)

// KeyLookup finds the key to call a provider with.
type KeyLookup interface {
	Newest(ctx context.Context, p models.Provider) (models.APIKey, error)
}

type Endpoint struct {
	BaseURL string
	Model   string
}

type ProviderDispatcherConfig struct {
	Keys        KeyLookup
	Endpoints   map[models.Provider]Endpoint
	MaxTokens   int
	HTTPClient  *http.Client
	MaxRetries  int
	BackoffBase time.Duration
	Logger      zerolog.Logger

	// build is swapped in tests.
	build func(registry.BuildOptions) (providers.Provider, error)
}

// ProviderDispatcher calls the selected provider with the user's newest
// stored key for it.
type ProviderDispatcher struct {
	cfg ProviderDispatcherConfig
}

func NewProviderDispatcher(cfg ProviderDispatcherConfig) *ProviderDispatcher {
	if cfg.build == nil {
		cfg.build = registry.Build
	}
	return &ProviderDispatcher{cfg: cfg}
}

func (d *ProviderDispatcher) Reply(ctx context.Context, p models.Provider, messages []models.Message) (string, error) {
	key, err := d.cfg.Keys.Newest(ctx, p)
	if err != nil {
		return "", err
	}
	ep := d.cfg.Endpoints[p]
	client, err := d.cfg.build(registry.BuildOptions{
		Provider:    p,
		BaseURL:     ep.BaseURL,
		APIKey:      key.KeyEncrypted,
		HTTPClient:  d.cfg.HTTPClient,
		MaxRetries:  d.cfg.MaxRetries,
		BackoffBase: d.cfg.BackoffBase,
	})
	if err != nil {
		return "", fmt.Errorf("build %s client: %w", p, err)
	}

	started := time.Now()
	resp, err := client.Chat(ctx, providers.ChatRequest{
		Model:     ep.Model,
		Messages:  messages,
		MaxTokens: d.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	d.cfg.Logger.Debug().Str("provider", string(p)).Dur("took", time.Since(started)).Msg("provider replied")
	return resp.Text, nil
}
