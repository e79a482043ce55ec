// Package baas is the single configured binding to the hosted
// backend-as-a-service: a PostgREST-style data API under /rest/v1 and a
// GoTrue-style auth API under /auth/v1.
package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llmconnector/internal/metrics"
)

const maxResponseBytes = 4 << 20

type Config struct {
	URL        string
	AnonKey    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend url is empty")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("backend anon key is empty")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    base,
		anonKey:    cfg.AnonKey,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Error is a non-2xx answer from either API.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, msg)
}

// IsAuth reports whether the backend rejected the caller's credentials.
func (e *Error) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

type request struct {
	method  string
	path    string
	query   url.Values
	token   string
	body    any
	headers map[string]string

	// metric labels
	table string
	op    string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	started := time.Now()
	err := c.doOnce(ctx, r, out)
	c.metrics.ObserveBackend(r.table, r.op, time.Since(started).Seconds(), err)
	if err != nil {
		c.logger.Debug().Err(err).Str("table", r.table).Str("op", r.op).Msg("backend call failed")
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", r.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.op, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := r.token
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", r.op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.op, err)
	}
	return nil
}

// decodeError understands both PostgREST ({code,message,details,hint}) and
// GoTrue ({error,error_description} or {code,msg}) error bodies.
func decodeError(status int, body []byte) error {
	e := &Error{Status: status}
	var raw struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		ErrorCode        string `json:"error_code"`
		ErrorName        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}

	switch v := raw.Code.(type) {
	case string:
		e.Code = v
	case float64:
		if raw.ErrorCode != "" {
			e.Code = raw.ErrorCode
		}
	}
	if e.Code == "" {
		e.Code = firstNonEmpty(raw.ErrorCode, raw.ErrorName)
	}
	e.Message = firstNonEmpty(raw.Message, raw.Msg, raw.ErrorDescription, raw.ErrorName)
	e.Details = raw.Details
	e.Hint = raw.Hint
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
