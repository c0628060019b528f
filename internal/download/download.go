// Package download fetches dataset sources over HTTP into a local cache
// and hands back file paths. It is the download-and-extract collaborator
// the dataset builder resolves split URLs through.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"fermi/internal/catalog"
	"fermi/internal/logging"
)

// DefaultParallel bounds concurrent fetches when Config.Parallel is unset.
const DefaultParallel = 3

// ErrNotCached is returned in offline mode for URLs with no cached copy.
var ErrNotCached = errors.New("not in cache")

// HTTPError reports a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("download: %s: %s", e.URL, e.Status)
}

// FailedURL names the URL that returned the response.
func (e *HTTPError) FailedURL() string { return e.URL }

// FetchError ties a DownloadAndExtract failure to the URL being fetched.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// FailedURL names the URL whose fetch or extraction failed.
func (e *FetchError) FailedURL() string { return e.URL }

// Config holds download manager settings.
type Config struct {
	CacheDir   string
	HTTPClient *http.Client // nil uses a client with Timeout
	Timeout    time.Duration
	UserAgent  string
	Parallel   int
	// Offline serves only cached entries.
	Offline bool
	// ForceDownload ignores cached entries.
	ForceDownload bool
	// Revalidate sends a conditional request for cached entries and keeps
	// the cached copy on 304 Not Modified.
	Revalidate bool
}

// Manager downloads URLs into CacheDir and tracks them in an Index.
type Manager struct {
	cfg      Config
	client   *http.Client
	index    *Index
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// New creates the cache directory and opens its index.
func New(cfg Config) (*Manager, error) {
	if cfg.CacheDir == "" {
		return nil, errors.New("download: cache dir is required")
	}
	if err := os.MkdirAll(filepath.Join(cfg.CacheDir, "downloads"), 0o755); err != nil {
		return nil, fmt.Errorf("download: create cache dir: %w", err)
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = DefaultParallel
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fermi/" + catalog.BuilderVersion
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	ix, err := OpenIndex(filepath.Join(cfg.CacheDir, "index.db"))
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &Manager{
		cfg:      cfg,
		client:   client,
		index:    ix,
		logger:   logging.New("download"),
		registry: reg,
		metrics:  newMetrics(reg),
	}, nil
}

// Close releases the index.
func (m *Manager) Close() error { return m.index.Close() }

// Index exposes the cache index.
func (m *Manager) Index() *Index { return m.index }

// DownloadAndExtract fetches every URL, extracting archives, and returns
// the local path for each split. Identical URLs are fetched once.
func (m *Manager) DownloadAndExtract(ctx context.Context, urls map[catalog.Split]string) (map[catalog.Split]string, error) {
	unique := make(map[string]string)
	for _, u := range urls {
		unique[u] = ""
	}
	results := make(chan [2]string, len(unique))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Parallel)
	for u := range unique {
		g.Go(func() error {
			p, err := m.Download(gCtx, u)
			if err != nil {
				return &FetchError{URL: u, Err: err}
			}
			p, err = Extract(p)
			if err != nil {
				return &FetchError{URL: u, Err: err}
			}
			results <- [2]string{u, p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for r := range results {
		unique[r[0]] = r[1]
	}

	out := make(map[catalog.Split]string, len(urls))
	for split, u := range urls {
		out[split] = unique[u]
	}
	return out, nil
}

// Download fetches a single URL into the cache and returns its path.
// file:// URLs and local paths are returned as is.
func (m *Manager) Download(ctx context.Context, rawURL string) (string, error) {
	p, err := m.download(ctx, rawURL)
	if err != nil {
		m.metrics.observe(ResultError)
	}
	return p, err
}

func (m *Manager) download(ctx context.Context, rawURL string) (string, error) {
	if p, ok := localPath(rawURL); ok {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("download: %w", err)
		}
		m.metrics.observe(ResultLocal)
		return p, nil
	}

	cached, err := m.cachedEntry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if cached != nil && !m.cfg.ForceDownload && (!m.cfg.Revalidate || m.cfg.Offline) {
		m.logger.Debug("cache hit", "url", rawURL, "path", cached.Path)
		m.metrics.observe(ResultHit)
		return cached.Path, nil
	}
	if m.cfg.Offline {
		if cached != nil {
			m.metrics.observe(ResultHit)
			return cached.Path, nil
		}
		return "", fmt.Errorf("download: %s: %w", rawURL, ErrNotCached)
	}
	if m.cfg.ForceDownload {
		cached = nil
	}
	return m.fetch(ctx, rawURL, cached)
}

// cachedEntry returns the index entry for u if its file still exists.
func (m *Manager) cachedEntry(ctx context.Context, u string) (*Entry, error) {
	e, err := m.index.Get(ctx, u)
	if err != nil || e == nil {
		return nil, err
	}
	if _, err := os.Stat(e.Path); err != nil {
		m.logger.Warn("cached file missing, refetching", "url", u, "path", e.Path)
		return nil, nil
	}
	return e, nil
}

func (m *Manager) fetch(ctx context.Context, u string, cached *Entry) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("download: new request: %w", err)
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	if cached != nil && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		m.logger.Debug("not modified", "url", u)
		cached.FetchedAt = time.Now()
		if err := m.index.Put(ctx, *cached); err != nil {
			return "", err
		}
		m.metrics.observe(ResultNotModified)
		return cached.Path, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &HTTPError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	dst := m.cachePath(u)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("download: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".incomplete-*")
	if err != nil {
		return "", fmt.Errorf("download: temp file: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("download: %s: %w", u, err)
	}
	if err := DiscardExtracted(dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("download: %s: %w", u, err)
	}

	entry := Entry{
		URL:       u,
		Path:      dst,
		ETag:      resp.Header.Get("ETag"),
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		Size:      n,
		FetchedAt: time.Now(),
	}
	if err := m.index.Put(ctx, entry); err != nil {
		return "", err
	}
	elapsed := time.Since(start)
	m.metrics.observe(ResultFetched)
	m.metrics.bytes.Add(float64(n))
	m.metrics.duration.Observe(elapsed.Seconds())
	m.logger.Info("downloaded", "url", u, "bytes", n, "elapsed", elapsed.Round(time.Millisecond))
	return dst, nil
}

// cachePath is downloads/<sha256(url)>/<basename>.
func (m *Manager) cachePath(u string) string {
	sum := sha256.Sum256([]byte(u))
	name := "data"
	if pu, err := url.Parse(u); err == nil {
		if b := path.Base(pu.Path); b != "." && b != "/" && b != "" {
			name = b
		}
	}
	return filepath.Join(m.cfg.CacheDir, "downloads", hex.EncodeToString(sum[:]), name)
}

// Clean removes every cached file and index entry.
func (m *Manager) Clean(ctx context.Context) (int, error) {
	entries, err := m.index.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Dir(e.Path)); err != nil {
			return 0, fmt.Errorf("download: remove %q: %w", e.Path, err)
		}
		if err := m.index.Delete(ctx, e.URL); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func localPath(raw string) (string, bool) {
	if strings.HasPrefix(raw, "file://") {
		u, err := url.Parse(raw)
		if err == nil {
			return filepath.FromSlash(u.Path), true
		}
	}
	if !strings.Contains(raw, "://") {
		return raw, true
	}
	return "", false
}
