package project

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/depsync/pkg/buildinfo"
	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/deps"
	apperrors "github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/repository"
	"github.com/matzehuels/depsync/pkg/transport"
)

// Environment variables that override the [cache] table.
const (
	EnvCacheDir = "DEPSYNC_CACHE_DIR"
	EnvRedisURL = "DEPSYNC_REDIS_URL"
)

const appName = "depsync"

// RepositoryOptions controls how remote repositories are opened.
type RepositoryOptions struct {
	Cache   cache.Cache // Descriptor cache shared by HTTP repositories (default: NullCache)
	Refresh bool        // Bypass cached descriptors
}

// Repositories opens the declared repositories in priority order.
func (p *Project) Repositories(opts RepositoryOptions) ([]deps.Repository, error) {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	ttl, err := p.CacheTTL()
	if err != nil {
		return nil, err
	}

	repos := make([]deps.Repository, 0, len(p.File.Repositories))
	for _, rc := range p.File.Repositories {
		r, err := p.openRepository(rc, opts, ttl)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "repository %q", rc.Name)
		}
		repos = append(repos, r)
	}
	return repos, nil
}

func (p *Project) openRepository(rc RepositoryConfig, opts RepositoryOptions, ttl time.Duration) (deps.Repository, error) {
	raw := os.ExpandEnv(strings.TrimSpace(rc.URL))
	scheme, _, _ := strings.Cut(raw, "://")
	switch strings.ToLower(scheme) {
	case "http", "https":
		username := os.ExpandEnv(rc.Username)
		var keyer cache.Keyer
		if username != "" {
			keyer = cache.NewScopedKeyer(nil, "user:"+cache.Hash([]byte(username))[:12]+":")
		}
		t, err := transport.NewHTTP(raw, transport.HTTPOptions{
			Namespace: rc.Name,
			Cache:     opts.Cache,
			Keyer:     keyer,
			TTL:       ttl,
			Refresh:   opts.Refresh,
			Username:  username,
			Password:  os.ExpandEnv(rc.Password),
			Headers:   map[string]string{"User-Agent": buildinfo.UserAgent()},
		})
		if err != nil {
			return nil, err
		}
		return repository.NewRemote(rc.Name, t, repository.RemoteOptions{VerifyChecksums: rc.VerifyChecksums})

	case "s3":
		bucket, prefix, err := transport.ParseS3URL(raw)
		if err != nil {
			return nil, err
		}
		cfg := transport.S3Config{Bucket: bucket, Prefix: prefix, UseSSL: true}
		if s := rc.S3; s != nil {
			cfg.Endpoint = os.ExpandEnv(s.Endpoint)
			cfg.Region = os.ExpandEnv(s.Region)
			cfg.AccessKey = os.ExpandEnv(s.AccessKey)
			cfg.SecretKey = os.ExpandEnv(s.SecretKey)
			if s.UseSSL != nil {
				cfg.UseSSL = *s.UseSSL
			}
		}
		t, err := transport.NewS3(cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewRemote(rc.Name, t, repository.RemoteOptions{VerifyChecksums: rc.VerifyChecksums})

	case "file":
		u, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}
		return repository.NewLocal(rc.Name, p.path(u.Path))
	}
	return repository.NewLocal(rc.Name, p.path(raw))
}

// path resolves a configured path against the project root, expanding a
// leading ~ to the home directory.
func (p *Project) path(s string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, s[1:])
		}
	}
	if filepath.IsAbs(s) {
		return filepath.Clean(s)
	}
	return filepath.Join(p.Root, s)
}

// OpenCache returns the descriptor cache configured for the project:
// Redis when a URL is set (DEPSYNC_REDIS_URL or cache.redis_url), else a
// file cache in DEPSYNC_CACHE_DIR, cache.dir or the user cache directory.
// With disabled set, a NullCache is returned.
func (p *Project) OpenCache(ctx context.Context, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	if u := firstSet(os.Getenv(EnvRedisURL), os.ExpandEnv(p.File.Cache.RedisURL)); u != "" {
		return cache.NewRedisCache(ctx, u, appName+":")
	}
	dir, err := p.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// CacheDir returns the file cache directory.
func (p *Project) CacheDir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir, nil
	}
	if p != nil && p.File.Cache.Dir != "" {
		return p.path(os.ExpandEnv(p.File.Cache.Dir)), nil
	}
	return DefaultCacheDir()
}

// DefaultCacheDir returns the user cache directory using the XDG
// convention (~/.cache/depsync/).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
