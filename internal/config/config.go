package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DataBackendREST = "rest"
	DataBackendSQL  = "sql"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

var (
	ErrMissingBackendURL  = errors.New("SUPABASE_URL is required")
	ErrMissingAnonKey     = errors.New("SUPABASE_ANON_KEY is required")
	ErrMissingDatabaseDSN = errors.New("DB_DSN is required when DATA_BACKEND=sql")
	ErrInvalidDataBackend = errors.New("DATA_BACKEND must be 'rest' or 'sql'")
	ErrInvalidSessionKind = errors.New("SESSION_STORE must be 'memory' or 'redis'")
	ErrInvalidPort        = errors.New("PORT must be between 1 and 65535")
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	DB      DBConfig
	Session SessionConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
	Chat    ChatConfig
	Notify  NotifyConfig
	Log     LogConfig
	EnvFile string
}

type ServerConfig struct {
	Port            int
	StaticDir       string
	HealthPath      string
	MetricsPath     string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
}

// Addr is the listen address for the static server.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

type BackendConfig struct {
	URL     string
	AnonKey string
	Data    string
}

type DBConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

type SessionConfig struct {
	Store   string
	Profile string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	ClientTimeout time.Duration
}

type ChatConfig struct {
	Dispatch        bool
	MaxRetries      int
	BackoffBase     time.Duration
	OpenAIBaseURL   string
	GoogleBaseURL   string
	AnthropicModel  string
	OpenAIModel     string
	GoogleModel     string
	MaxOutputTokens int
}

type NotifyConfig struct {
	Desktop bool
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads the environment, seeded from the first .env file found, and
// applies defaults. It validates only what every binary needs; use
// ValidateServer and ValidateClient for the rest.
func Load() (*Config, error) {
	envFile := loadEnvFile()

	cfg := &Config{
		EnvFile: envFile,
		Server: ServerConfig{
			Port:            mustInt("PORT", 3000),
			StaticDir:       mustEnv("STATIC_DIR", "dist"),
			HealthPath:      optionalPath("HEALTH_PATH", "/healthz"),
			MetricsPath:     optionalPath("METRICS_PATH", "/metrics"),
			ShutdownTimeout: mustDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadTimeout:     mustDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		},
		Backend: BackendConfig{
			URL:     strings.TrimSuffix(mustEnv("SUPABASE_URL", ""), "/"),
			AnonKey: mustEnv("SUPABASE_ANON_KEY", ""),
			Data:    strings.ToLower(mustEnv("DATA_BACKEND", DataBackendREST)),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(mustEnv("DB_DRIVER", "postgres")),
			DSN:         mustEnv("DB_DSN", ""),
			AutoMigrate: mustBool("AUTO_MIGRATE", true),
		},
		Session: SessionConfig{
			Store:   strings.ToLower(mustEnv("SESSION_STORE", SessionStoreMemory)),
			Profile: mustEnv("SESSION_PROFILE", "default"),
			TTL:     mustDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     mustEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: mustEnv("REDIS_PASSWORD", ""),
			DB:       mustInt("REDIS_DB", 0),
		},
		HTTP: HTTPConfig{
			ClientTimeout: mustDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		Chat: ChatConfig{
			Dispatch:        mustBool("CHAT_DISPATCH", false),
			MaxRetries:      mustInt("PROVIDER_MAX_RETRIES", 2),
			BackoffBase:     mustDuration("PROVIDER_BACKOFF_BASE", 400*time.Millisecond),
			OpenAIBaseURL:   mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GoogleBaseURL:   mustEnv("GOOGLE_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
			OpenAIModel:     mustEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GoogleModel:     mustEnv("GOOGLE_MODEL", "gemini-2.0-flash"),
			AnthropicModel:  mustEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			MaxOutputTokens: mustInt("PROVIDER_MAX_TOKENS", 1024),
		},
		Notify: NotifyConfig{
			Desktop: mustBool("NOTIFY_DESKTOP", false),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
			File:  mustEnv("LOG_FILE", "llmconnector.log"),
		},
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, ErrInvalidPort
	}
	return cfg, nil
}

// ValidateServer checks the settings the static server depends on.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Server.StaticDir) == "" {
		return fmt.Errorf("STATIC_DIR is empty")
	}
	return nil
}

// ValidateClient checks the settings the terminal client depends on.
func (c *Config) ValidateClient() error {
	if c.Backend.URL == "" {
		return ErrMissingBackendURL
	}
	if c.Backend.AnonKey == "" {
		return ErrMissingAnonKey
	}
	switch c.Backend.Data {
	case DataBackendREST:
	case DataBackendSQL:
		if c.DB.DSN == "" {
			return ErrMissingDatabaseDSN
		}
	default:
		return ErrInvalidDataBackend
	}
	if c.Session.Store != SessionStoreMemory && c.Session.Store != SessionStoreRedis {
		return ErrInvalidSessionKind
	}
	return nil
}

// loadEnvFile loads the first existing candidate .env file without overriding
// variables that are already set, and returns its path.
func loadEnvFile() string {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			continue
		}
		return path
	}
	return ""
}

func envPaths() []string {
	var paths []string
	if p := os.Getenv("ENV_FILE"); p != "" {
		paths = append(paths, p)
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "llmconnector", ".env"))
	}
	return paths
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// optionalPath is like mustEnv but an explicitly empty variable disables the
// endpoint instead of falling back to the default.
func optionalPath(key string, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "/") {
		v = "/" + v
	}
	return v
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustBool(key string, def bool) bool {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
