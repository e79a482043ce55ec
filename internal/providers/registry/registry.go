package registry

import (
	"fmt"
	"net/http"
	"time"

	"llmconnector/internal/models"
	"llmconnector/internal/providers"
	"llmconnector/internal/providers/anthropic_messages"
	"llmconnector/internal/providers/openai_compat"
)

type BuildOptions struct {
	Provider    models.Provider
	BaseURL     string
	APIKey      string
	HTTPClient  *http.Client
	MaxRetries  int
	BackoffBase time.Duration
}

func Build(opts BuildOptions) (providers.Provider, error) {
	switch opts.Provider {
	case models.ProviderOpenAI, models.ProviderGoogle:
		return openai_compat.New(openai_compat.Config{
			Provider:    opts.Provider,
			BaseURL:     opts.BaseURL,
			APIKey:      opts.APIKey,
			HTTPClient:  opts.HTTPClient,
			MaxRetries:  opts.MaxRetries,
			BackoffBase: opts.BackoffBase,
		}), nil

	case models.ProviderAnthropic:
		return anthropic_messages.New(anthropic_messages.Config{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			HTTPClient: opts.HTTPClient,
			MaxRetries: opts.MaxRetries,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported provider %q", opts.Provider)
	}
}
