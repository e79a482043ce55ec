// Package auth owns the process-wide session: it restores a persisted
// sign-in at startup, signs users in, up and out, and decides which screens
// an anonymous user may see.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llmconnector/internal/baas"
	"llmconnector/internal/models"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials   = errors.New("enter a valid email and a password of at least 6 characters")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrConfirmationRequired = errors.New("account created, confirm your email before signing in")
	ErrNotAuthenticated     = errors.New("not signed in")
)

// Authenticator is the subset of the auth API the gate needs.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (baas.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (baas.Session, error)
	Refresh(ctx context.Context, refreshToken string) (baas.Session, error)
	GetUser(ctx context.Context, accessToken string) (models.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

type Config struct {
	Auth   Authenticator
	Store  SessionStore
	Logger zerolog.Logger
	Now    func() time.Time
}

type Gate struct {
	auth   Authenticator
	store  SessionStore
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	session *baas.Session
}

func New(cfg Config) *Gate {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gate{
		auth:   cfg.Auth,
		store:  cfg.Store,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// ValidateCredentials checks the form locally so obviously bad input never
// reaches the auth API.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}

// Restore loads the persisted session and validates it remotely. Any failure
// leaves the gate signed out and clears the stored session.
func (g *Gate) Restore(ctx context.Context) bool {
	stored, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("load stored session")
		g.drop(ctx)
		return false
	}
	if stored == nil {
		return false
	}

	s := *stored
	if s.Expired(g.now()) {
		if s.RefreshToken == "" {
			g.drop(ctx)
			return false
		}
		refreshed, err := g.auth.Refresh(ctx, s.RefreshToken)
		if err != nil {
			g.logger.Info().Err(err).Msg("stored session could not be refreshed")
			g.drop(ctx)
			return false
		}
		s = refreshed
	}

	user, err := g.auth.GetUser(ctx, s.AccessToken)
	if err != nil {
		g.logger.Info().Err(err).Msg("stored session rejected")
		g.drop(ctx)
		return false
	}
	s.User = user
	g.adopt(ctx, s)
	g.logger.Info().Str("user_id", user.ID).Msg("session restored")
	return true
}

func (g *Gate) SignIn(ctx context.Context, email, password string) (models.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return models.User{}, err
	}
	s, err := g.auth.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.User{}, err
	}
	if !s.Valid() {
		return models.User{}, fmt.Errorf("sign in: incomplete session")
	}
	g.adopt(ctx, s)
	g.logger.Info().Str("user_id", s.User.ID).Msg("signed in")
	return s.User, nil
}

// SignUp registers an account. When the auth API requires email confirmation
// it returns ErrConfirmationRequired and the gate stays signed out.
func (g *Gate) SignUp(ctx context.Context, email, password, confirm string) (models.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return models.User{}, err
	}
	if password != confirm {
		return models.User{}, ErrPasswordMismatch
	}
	s, err := g.auth.SignUp(ctx, strings.TrimSpace(email), password)
	if errors.Is(err, baas.ErrNoSession) {
		return models.User{}, ErrConfirmationRequired
	}
	if err != nil {
		return models.User{}, err
	}
	g.adopt(ctx, s)
	g.logger.Info().Str("user_id", s.User.ID).Msg("signed up")
	return s.User, nil
}

// SignOut revokes the session remotely on a best-effort basis and always
// clears the local state.
func (g *Gate) SignOut(ctx context.Context) {
	g.mu.RLock()
	s := g.session
	g.mu.RUnlock()

	if s != nil {
		if err := g.auth.SignOut(ctx, s.AccessToken); err != nil {
			g.logger.Warn().Err(err).Msg("remote sign-out failed")
		}
	}
	g.drop(ctx)
	g.logger.Info().Msg("signed out")
}

// Current returns the signed-in user.
func (g *Gate) Current() (models.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return models.User{}, false
	}
	return g.session.User, true
}

// Owner returns the identity repositories run as. An expired access token is
// refreshed once; if that fails the gate signs out.
func (g *Gate) Owner(ctx context.Context) (models.Owner, error) {
	g.mu.RLock()
	s := g.session
	g.mu.RUnlock()
	if s == nil {
		return models.Owner{}, ErrNotAuthenticated
	}

	if s.Expired(g.now()) {
		refreshed, err := g.auth.Refresh(ctx, s.RefreshToken)
		if err != nil {
			g.logger.Info().Err(err).Msg("session expired")
			g.drop(ctx)
			return models.Owner{}, ErrNotAuthenticated
		}
		if refreshed.User.ID == "" {
			refreshed.User = s.User
		}
		g.adopt(ctx, refreshed)
		s = &refreshed
	}
	return models.Owner{UserID: s.User.ID, AccessToken: s.AccessToken}, nil
}

// Guard returns the route to render for a requested route.
func (g *Gate) Guard(r Route) Route {
	if !r.Protected() {
		return r
	}
	if _, ok := g.Current(); ok {
		return r
	}
	return RouteLogin
}

func (g *Gate) adopt(ctx context.Context, s baas.Session) {
	g.mu.Lock()
	g.session = &s
	g.mu.Unlock()
	if err := g.store.Save(ctx, s); err != nil {
		g.logger.Warn().Err(err).Msg("persist session")
	}
}

func (g *Gate) drop(ctx context.Context) {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("clear stored session")
	}
}
