package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"llmconnector/internal/activity"
	"llmconnector/internal/app"
	"llmconnector/internal/auth"
	"llmconnector/internal/baas"
	"llmconnector/internal/chat"
	"llmconnector/internal/config"
	"llmconnector/internal/keys"
	"llmconnector/internal/logging"
	"llmconnector/internal/metrics"
	"llmconnector/internal/models"
	"llmconnector/internal/repo"
	chatview "llmconnector/internal/ui/views/chat"
	"llmconnector/internal/ui/views/history"
	"llmconnector/internal/ui/views/landing"
	"llmconnector/internal/ui/views/login"
	"llmconnector/internal/ui/views/register"
	"llmconnector/internal/ui/views/settings"
)

const (
	callTimeout = 15 * time.Second
	// A reply may include provider retries on top of the storage writes.
	dispatchTimeout = 2 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "llmconnector:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logFile, err := logging.SetupFile(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger.Info().
		Str("data_backend", cfg.Backend.Data).
		Str("session_store", cfg.Session.Store).
		Bool("dispatch", cfg.Chat.Dispatch).
		Str("env_file", cfg.EnvFile).
		Msg("starting llmconnector")

	ctx := context.Background()
	m := metrics.Global()

	client, err := baas.New(baas.Config{
		URL:        cfg.Backend.URL,
		AnonKey:    cfg.Backend.AnonKey,
		HTTPClient: &http.Client{Timeout: cfg.HTTP.ClientTimeout},
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	repos, err := repo.Open(ctx, cfg, client, m, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gate := auth.New(auth.Config{Auth: client, Store: store, Logger: logger})
	if gate.Restore(ctx) {
		logger.Info().Msg("session restored")
	}

	activityLog := activity.New(activity.Config{Commits: repos.Commits, Owners: gate, Logger: logger})
	keysMgr := keys.New(keys.Config{Keys: repos.Keys, Activity: activityLog, Owners: gate, Logger: logger})

	chatCfg := chat.Config{Chats: repos.Chats, Owners: gate, Logger: logger}
	chatTimeout := callTimeout
	if cfg.Chat.Dispatch {
		chatCfg.Dispatcher = chat.NewProviderDispatcher(chat.ProviderDispatcherConfig{
			Keys: keysMgr,
			Endpoints: map[models.Provider]chat.Endpoint{
				models.ProviderOpenAI:    {BaseURL: cfg.Chat.OpenAIBaseURL, Model: cfg.Chat.OpenAIModel},
				models.ProviderGoogle:    {BaseURL: cfg.Chat.GoogleBaseURL, Model: cfg.Chat.GoogleModel},
				models.ProviderAnthropic: {Model: cfg.Chat.AnthropicModel},
			},
			MaxTokens:   cfg.Chat.MaxOutputTokens,
			HTTPClient:  &http.Client{Timeout: cfg.HTTP.ClientTimeout},
			MaxRetries:  cfg.Chat.MaxRetries,
			BackoffBase: cfg.Chat.BackoffBase,
			Logger:      logger,
		})
		chatTimeout = dispatchTimeout
	}
	chatMgr := chat.New(chatCfg)

	appCfg := app.Config{Session: gate, Logger: logger}
	if cfg.Notify.Desktop {
		appCfg.DesktopNotify = desktopNotifier(logger)
	}
	model := app.NewModel(appCfg)
	model.SetTabs(map[auth.Route]app.Tab{
		auth.RouteLanding:  landing.New(),
		auth.RouteLogin:    login.New(gate, callTimeout),
		auth.RouteRegister: register.New(gate, callTimeout),
		auth.RouteChat:     chatview.New(chatMgr, chatTimeout),
		auth.RouteSettings: settings.New(keysMgr, activityLog, callTimeout),
		auth.RouteHistory:  history.New(activityLog, callTimeout),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	logger.Info().Msg("stopped")
	return nil
}

// openSessionStore returns the store named by SESSION_STORE and the function
// that releases it.
func openSessionStore(ctx context.Context, cfg *config.Config) (auth.SessionStore, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return auth.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return auth.NewRedisStore(rdb, cfg.Session.Profile, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
}

func desktopNotifier(logger zerolog.Logger) func(title, message string) error {
	return func(title, message string) error {
		if err := beeep.Notify(title, message, ""); err != nil {
			logger.Debug().Err(err).Msg("desktop notification failed")
			return err
		}
		return nil
	}
}
