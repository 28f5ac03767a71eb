package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/observability"
)

// DefaultCacheTTL is how long descriptor and metadata responses are cached.
const DefaultCacheTTL = 24 * time.Hour

// HTTPOptions configures an [HTTP] transport.
type HTTPOptions struct {
	Namespace string            // Cache namespace and metrics label, usually the repository name
	Cache     cache.Cache       // Response cache (default: NullCache)
	Keyer     cache.Keyer       // Cache key derivation (default: DefaultKeyer)
	TTL       time.Duration     // Cache entry lifetime (default: 24h)
	Refresh   bool              // Skip cache reads; responses are still stored
	Cacheable func(string) bool // Paths whose responses may be cached (default: descriptors and metadata)
	Backoff   cache.Backoff     // Retry policy for 5xx and connection failures
	Username  string            // Basic auth user (optional)
	Password  string            // Basic auth password (optional)
	Headers   map[string]string // Extra request headers
	Client    *http.Client      // Underlying client (default: 30s timeout)
}

// WithDefaults returns a copy of HTTPOptions with zero values replaced by defaults.
func (o HTTPOptions) WithDefaults() HTTPOptions {
	opts := o
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.Cacheable == nil {
		opts.Cacheable = Metadata
	}
	if opts.Backoff.Attempts <= 0 {
		opts.Backoff = cache.DefaultBackoff
	}
	if opts.Client == nil {
		opts.Client = NewHTTPClient()
	}
	return opts
}

// Metadata reports whether path names a descriptor, repository metadata
// or checksum file. Archives are never cached; the managed directory is
// their cache.
func Metadata(path string) bool {
	for _, ext := range []string{".pom", ".xml", ".sha1"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// NewHTTPClient creates an HTTP client with a standard timeout for repository requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// HTTP reads from an http(s) base URL.
type HTTP struct {
	base string
	host string
	opts HTTPOptions
}

// NewHTTP creates an HTTP transport rooted at base.
func NewHTTP(base string, opts HTTPOptions) (*HTTP, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse repository url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("repository url %q: scheme must be http or https", base)
	}
	return &HTTP{base: base, host: u.Host, opts: opts.WithDefaults()}, nil
}

// URL returns the absolute URL of path.
func (h *HTTP) URL(path string) string { return join(h.base, path) }

// Get fetches path, consulting the response cache for cacheable paths.
// Retryable failures are retried according to the Backoff policy.
func (h *HTTP) Get(ctx context.Context, path string) ([]byte, error) {
	u := h.URL(path)
	cacheable := h.opts.Cacheable(path)
	key := h.opts.Keyer.HTTPKey(h.opts.Namespace, u)

	if cacheable && !h.opts.Refresh {
		if data, ok, _ := h.opts.Cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, h.opts.Namespace)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, h.opts.Namespace)
	}

	var data []byte
	err := h.opts.Backoff.Retry(ctx, func() error {
		var err error
		data, err = h.do(ctx, http.MethodGet, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := h.opts.Cache.Set(ctx, key, data, h.opts.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, h.opts.Namespace, len(data))
		}
	}
	return data, nil
}

// Exists issues a HEAD request for path.
func (h *HTTP) Exists(ctx context.Context, path string) (bool, error) {
	u := h.URL(path)
	err := h.opts.Backoff.Retry(ctx, func() error {
		_, err := h.do(ctx, http.MethodHead, u)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (h *HTTP) do(ctx context.Context, method, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.opts.Headers {
		req.Header.Set(k, v)
	}
	if h.opts.Username != "" {
		req.SetBasicAuth(h.opts.Username, h.opts.Password)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, h.host, req.URL.Path)
	start := time.Now()

	resp, err := h.opts.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, h.host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, h.host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, u); err != nil {
		return nil, err
	}
	if method == http.MethodHead {
		return nil, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read %s: %v", ErrNetwork, u, err))
	}
	return data, nil
}

func checkStatus(code int, u string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%s: %w", u, ErrNotFound)
	case code >= 500 || code == http.StatusTooManyRequests:
		return cache.Retryable(fmt.Errorf("%w: %s: status %d", ErrNetwork, u, code))
	default:
		return fmt.Errorf("%w: %s: status %d", ErrNetwork, u, code)
	}
}

var _ Transport = (*HTTP)(nil)
