// Package fetch retrieves dataset bytes from files, HTTP(S) URLs or WebSocket feeds
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/contextmap/contextmap-go/internal/ws"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a source does not exist.
var ErrNotFound = eris.New("fetch: source not found")

// Fetcher returns the raw bytes behind a source string.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// PathResolver is implemented by fetchers that can hand out a local path,
// for formats that must be read from disk (shapefiles).
type PathResolver interface {
	Resolve(source string) (string, bool)
}

// Options configures a Router.
type Options struct {
	BaseDir  string
	Timeout  time.Duration
	CacheDir string
	CacheTTL time.Duration
	Token    string
	Logger   *zap.Logger
}

// Router dispatches a source to the file system, HTTP or WebSocket by scheme.
type Router struct {
	opts   Options
	client *http.Client
	ws     *ws.Client
	log    *zap.Logger
}

// New creates a Router.
func New(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		opts:   opts,
		client: &http.Client{},
		ws:     ws.NewClient(opts.Timeout, opts.Token),
		log:    log,
	}
}

// Fetch reads source. A zero Timeout means the request waits as long as ctx allows.
func (r *Router) Fetch(ctx context.Context, source string) ([]byte, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	switch scheme(source) {
	case "http", "https":
		return r.fetchHTTP(ctx, source)
	case "ws", "wss":
		data, err := r.ws.Snapshot(ctx, source)
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		path, _ := r.Resolve(source)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, eris.Wrapf(ErrNotFound, "fetch: %s", path)
			}
			return nil, eris.Wrapf(err, "fetch: read %s", path)
		}
		return data, nil
	}
}

// Resolve maps a file source to a path on disk: file:// is stripped, ~ is
// expanded and relative paths are joined to BaseDir.
func (r *Router) Resolve(source string) (string, bool) {
	path, ok := Local(source)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) && r.opts.BaseDir != "" {
		path = filepath.Join(r.opts.BaseDir, path)
	}
	return path, true
}

// Local reports whether source names a file and returns it without any scheme.
func Local(source string) (string, bool) {
	switch scheme(source) {
	case "":
		return source, true
	case "file":
		return strings.TrimPrefix(source, "file://"), true
	}
	return "", false
}

func scheme(source string) string {
	i := strings.Index(source, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(source[:i])
}

func (r *Router) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	if r.opts.CacheDir == "" {
		return r.download(ctx, rawURL)
	}

	if err := os.MkdirAll(r.opts.CacheDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "fetch: create cache dir")
	}
	localPath := filepath.Join(r.opts.CacheDir, CacheFileName(rawURL))

	if info, err := os.Stat(localPath); err == nil && !r.expired(info.ModTime()) {
		r.log.Debug("using cached dataset", zap.String("url", rawURL), zap.String("path", localPath))
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, eris.Wrap(err, "fetch: read cache")
		}
		return data, nil
	}

	r.log.Debug("downloading dataset", zap.String("url", rawURL))
	data, err := r.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(localPath, data); err != nil {
		r.log.Warn("cache write failed", zap.String("path", localPath), zap.Error(err))
	}
	return data, nil
}

func (r *Router) expired(modTime time.Time) bool {
	return r.opts.CacheTTL > 0 && time.Since(modTime) > r.opts.CacheTTL
}

func (r *Router) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: build request %s", rawURL)
	}
	if r.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.opts.Token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.log.Debug("error closing response body", zap.Error(err))
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "fetch: %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetch: %s: bad status: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read body %s", rawURL)
	}
	return data, nil
}

// CacheFileName returns the on-disk name used to cache a URL.
func CacheFileName(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Host + u.Path
		if u.RawQuery != "" {
			name += "_" + u.RawQuery
		}
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, name)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Memory serves datasets from a map. Sources are matched exactly.
type Memory struct {
	mu    sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls map[string]int
}

// NewMemory creates an in-memory fetcher.
func NewMemory(data map[string][]byte) *Memory {
	m := &Memory{
		data:  make(map[string][]byte, len(data)),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
	for k, v := range data {
		m.data[k] = v
	}
	return m
}

// Fetch returns the stored bytes for source.
func (m *Memory) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[source]++
	if err := m.errs[source]; err != nil {
		return nil, err
	}
	data, ok := m.data[source]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "fetch: %s", source)
	}
	return data, nil
}

// Set replaces the bytes for source and clears any forced error.
func (m *Memory) Set(source string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[source] = data
	delete(m.errs, source)
}

// Fail makes every fetch of source return err.
func (m *Memory) Fail(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[source] = err
}

// Calls returns how many times source was fetched.
func (m *Memory) Calls(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[source]
}
