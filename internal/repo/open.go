package repo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"llmconnector/internal/baas"
	"llmconnector/internal/config"
	"llmconnector/internal/metrics"
	"llmconnector/internal/storage"
)

// Open builds the repositories selected by cfg.Backend.Data.
func Open(ctx context.Context, cfg *config.Config, client *baas.Client, m *metrics.Metrics, logger zerolog.Logger) (*Set, error) {
	switch cfg.Backend.Data {
	case config.DataBackendREST, "":
		logger.Info().Str("backend", config.DataBackendREST).Msg("using hosted data api")
		return NewREST(client), nil
	case config.DataBackendSQL:
		store, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, cfg.DB.AutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("open sql store: %w", err)
		}
		logger.Info().Str("backend", config.DataBackendSQL).Str("driver", store.Driver()).Msg("using direct database connection")
		return NewSQL(store, m), nil
	default:
		return nil, config.ErrInvalidDataBackend
	}
}
