// Package server hosts the pre-built web bundle. Unknown paths get the
// bundle's index.html so the client-side router can handle them.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"llmconnector/internal/metrics"
)

const indexFile = "index.html"

type Config struct {
	Dir         string
	HealthPath  string
	MetricsPath string
	// ConnectSrc lists extra origins the bundle may call, typically the
	// backend URL.
	ConnectSrc []string
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

type indexPage struct {
	body    []byte
	modTime time.Time
}

type Server struct {
	cfg   Config
	root  *os.Root
	index atomic.Pointer[indexPage]
}

func New(cfg Config) (*Server, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve static dir: %w", err)
	}
	cfg.Dir = dir
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open static dir: %w", err)
	}
	s := &Server{cfg: cfg, root: root}
	if err := s.reloadIndex(); err != nil {
		_ = root.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) Close() error {
	return s.root.Close()
}

// Handler returns the full handler: operational endpoints plus the static
// site, compressed and with security headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.cfg.HealthPath != "" {
		mux.HandleFunc(s.cfg.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}
	if s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, promhttp.Handler())
	}
	mux.HandleFunc("/", s.serveStatic)

	return withSecurityHeaders(contentSecurityPolicy(s.cfg.ConnectSrc), gzhttp.GzipHandler(mux))
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.count("rejected")
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name, ok := cleanPath(r.URL.Path)
	if !ok {
		s.count("rejected")
		s.cfg.Logger.Warn().Str("path", r.URL.Path).Msg("rejected static path")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	if name != "" && name != indexFile && !hidden(name) && s.serveFile(w, r, name) {
		s.count("asset")
		return
	}
	s.count("fallback")
	s.serveIndex(w, r)
}

// serveFile reports whether name was a regular file and has been served.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := s.root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.cfg.Logger.Debug().Err(err).Str("file", name).Msg("open static file")
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	page := s.index.Load()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, indexFile, page.modTime, bytes.NewReader(page.body))
}

func (s *Server) count(kind string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.StaticRequests.WithLabelValues(kind).Inc()
	}
}

// cleanPath maps a URL path to a name relative to the static root. Paths
// with dot-dot segments are refused.
func cleanPath(p string) (string, bool) {
	if strings.Contains(p, "\x00") || strings.Contains(p, "\\") {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/"), true
}

// hidden reports whether any segment of name is a dotfile. Those are never
// served from disk; the request falls through to the index page.
func hidden(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func (s *Server) reloadIndex() error {
	f, err := s.root.Open(indexFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", indexFile, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", indexFile, err)
	}
	body, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", indexFile, err)
	}
	s.index.Store(&indexPage{body: body, modTime: info.ModTime()})
	return nil
}

// Watch reloads the cached index.html whenever the build directory changes,
// until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != indexFile || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.reloadIndex(); err != nil {
				s.cfg.Logger.Warn().Err(err).Msg("reload index, keeping previous version")
				continue
			}
			s.cfg.Logger.Info().Msg("index reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.cfg.Logger.Warn().Err(err).Msg("static dir watcher")
		}
	}
}
