package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"llmconnector/internal/baas"
)

// SessionStore persists the signed-in session between runs. Load returns
// nil, nil when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (*baas.Session, error)
	Save(ctx context.Context, s baas.Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session for the lifetime of the process only.
type MemoryStore struct {
	mu      sync.Mutex
	session *baas.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (*baas.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s baas.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// RedisStore keeps the session under one key per profile so several
// terminals of the same user share a sign-in.
type RedisStore struct {
	redis   *redis.Client
	profile string
	ttl     time.Duration
}

func NewRedisStore(rdb *redis.Client, profile string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{redis: rdb, profile: profile, ttl: ttl}
}

func (r *RedisStore) key() string {
	return fmt.Sprintf("llmconnector:session:%s", r.profile)
}

func (r *RedisStore) Load(ctx context.Context) (*baas.Session, error) {
	raw, err := r.redis.Get(ctx, r.key()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s baas.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s baas.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.redis.Set(ctx, r.key(), string(b), r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
