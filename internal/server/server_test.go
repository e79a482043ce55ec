package server

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"llmconnector/internal/metrics"
)

var indexBody = "<!doctype html><html><body><div id=\"root\"></div>" + strings.Repeat("<!-- padding -->", 200) + "</body></html>"

func newTestServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexBody), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log('app')"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET=1"), 0o644))

	cfg.Dir = dir
	cfg.Logger = zerolog.Nop()
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func get(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServesAssetsAsFiles(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := get(t, s.Handler(), http.MethodGet, "/assets/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "console.log('app')", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	require.Equal(t, float64(1), testutil.ToFloat64(s.cfg.Metrics.StaticRequests.WithLabelValues("asset")))
}

func TestUnknownPathsFallBackToIndex(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	for _, target := range []string{"/", "/chat", "/settings/keys", "/index.html", "/assets", "/assets/missing.js"} {
		rec := get(t, s.Handler(), http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Equal(t, indexBody, rec.Body.String(), target)
		require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"), target)
	}
}

func TestHeadIsAllowedOtherMethodsAreNot(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := get(t, s.Handler(), http.MethodHead, "/chat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = get(t, s.Handler(), http.MethodPost, "/chat", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestHiddenFilesFallBackToIndex(t *testing.T) {
	s, dir := newTestServer(t, Config{})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".well-known"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".well-known", "x"), []byte("hidden"), 0o644))

	for _, target := range []string{"/.env", "/.well-known/x", "/assets/.env"} {
		rec := get(t, s.Handler(), http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Equal(t, indexBody, rec.Body.String(), target)
	}
	require.Equal(t, float64(0), testutil.ToFloat64(s.cfg.Metrics.StaticRequests.WithLabelValues("rejected")))
}

func TestTraversalIsRejected(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../../etc/passwd"
	rec := httptest.NewRecorder()
	s.serveStatic(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCleanPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/", "", true},
		{"/assets/app.js", "assets/app.js", true},
		{"/a//b/./c", "a/b/c", true},
		{"/../x", "", false},
		{"/a/../../x", "", false},
		{"/.git/config", ".git/config", true},
		{"/a\\..\\b", "", false},
	}
	for _, tc := range cases {
		got, ok := cleanPath(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		if ok {
			require.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestHidden(t *testing.T) {
	require.True(t, hidden(".env"))
	require.True(t, hidden(".well-known/x"))
	require.True(t, hidden("assets/.cache/a.js"))
	require.False(t, hidden("assets/app.js"))
	require.False(t, hidden("assets/app.v1.js"))
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, Config{ConnectSrc: []string{"https://abc.supabase.co"}})

	rec := get(t, s.Handler(), http.MethodGet, "/", nil)
	h := rec.Header()
	require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	require.Equal(t, "SAMEORIGIN", h.Get("X-Frame-Options"))
	require.Equal(t, "0", h.Get("X-XSS-Protection"))
	require.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
	require.Contains(t, h.Get("Content-Security-Policy"), "connect-src 'self' https://abc.supabase.co")
	require.Empty(t, h.Get("X-Powered-By"))
}

func TestCompressesWhenAccepted(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := get(t, s.Handler(), http.MethodGet, "/chat", http.Header{"Accept-Encoding": []string{"gzip"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, indexBody, string(body))
}

func TestOperationalEndpoints(t *testing.T) {
	s, _ := newTestServer(t, Config{HealthPath: "/healthz", MetricsPath: "/metrics"})

	rec := get(t, s.Handler(), http.MethodGet, "/healthz", nil)
	require.Equal(t, "ok", rec.Body.String())

	rec = get(t, s.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEqual(t, indexBody, rec.Body.String())

	disabled, _ := newTestServer(t, Config{})
	rec = get(t, disabled.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, indexBody, rec.Body.String())
}

func TestNewFailsWithoutIndex(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir(), Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestWatchReloadsIndex(t *testing.T) {
	s, dir := newTestServer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>v2</html>"), 0o644))
	require.Eventually(t, func() bool {
		rec := get(t, s.Handler(), http.MethodGet, "/anything", nil)
		return rec.Body.String() == "<html>v2</html>"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
