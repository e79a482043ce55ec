package baas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"llmconnector/internal/models"
)

// Session is what the auth API hands back after a successful sign-in.
type Session struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// Expiry returns the absolute expiry time, or the zero time when unknown.
func (s Session) Expiry() time.Time {
	if s.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// Expired reports whether the access token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	exp := s.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

// Valid reports whether s carries enough to authenticate requests.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.User.ID != ""
}

// ErrNoSession is returned by SignUp when the account was created but the
// auth API did not issue a session, typically because email confirmation is
// pending.
var ErrNoSession = errors.New("sign-up did not return a session")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	// Without auto-confirm the API answers with the bare user object, which
	// decodes into a Session with no access token.
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
		table:  "auth",
		op:     "signup",
	}, &s)
	if err != nil {
		return Session{}, fmt.Errorf("sign up: %w", err)
	}
	if s.AccessToken == "" {
		return Session{}, ErrNoSession
	}
	s.stampExpiry(time.Now())
	return s, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{"password"}},
		body:   credentials{Email: email, Password: password},
		table:  "auth",
		op:     "token",
	}, &s)
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	s.stampExpiry(time.Now())
	return s, nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		table:  "auth",
		op:     "refresh",
	}, &s)
	if err != nil {
		return Session{}, fmt.Errorf("refresh session: %w", err)
	}
	s.stampExpiry(time.Now())
	return s, nil
}

// GetUser resolves the user an access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	var u models.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
		table:  "auth",
		op:     "user",
	}, &u)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	if u.ID == "" {
		return models.User{}, fmt.Errorf("get user: empty user id")
	}
	return u, nil
}

// SignOut revokes the session server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
		table:  "auth",
		op:     "logout",
	}, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *Session) stampExpiry(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}
