package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) should miss")
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v; want v1, true, nil", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit = %v, err = %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Clear = %d, %v; want 3, nil", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the cache dir: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.HTTPKey("central", "https://repo/x.pom"); got != "http:central:https://repo/x.pom" {
		t.Errorf("HTTPKey = %q", got)
	}

	long := "https://repo/" + strings.Repeat("a", 300)
	got := k.HTTPKey("central", long)
	if !strings.HasPrefix(got, "http:central:") || len(got) > 100 {
		t.Errorf("HTTPKey(long) = %q, want hashed key", got)
	}
	if got == k.HTTPKey("central", long+"b") {
		t.Error("distinct long urls should not share a key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")
	if got := scoped.HTTPKey("central", "u"); got != "user:123:http:central:u" {
		t.Errorf("HTTPKey = %q", got)
	}
	if got := NewScopedKeyer(nil, "p:").HTTPKey("n", "u"); got != "p:http:n:u" {
		t.Errorf("HTTPKey with nil inner = %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestBackoffRetry(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, true, 1, false},
		{"non-retryable stops", 5, false, 1, true},
		{"recovers after retry", 1, true, 2, false},
		{"gives up after attempts", 5, true, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fast.Retry(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(ErrNetwork)
					}
					return ErrNotFound
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-redis-url", "depsync:"); err == nil {
		t.Error("NewRedisCache with an invalid url should fail")
	}
}

func TestLazyOpensOnFirstUse(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	opens := 0
	c := NewLazy(func(context.Context) (Cache, error) {
		opens++
		return NewFileCache(dir)
	}, nil)

	if c.Opened() {
		t.Error("Opened() before use = true")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir exists before first use: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, "k"); err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v; want v, true, nil", data, hit, err)
	}
	if opens != 1 {
		t.Errorf("open called %d times, want 1", opens)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir after first use: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLazyCloseWithoutUse(t *testing.T) {
	c := NewLazy(func(context.Context) (Cache, error) {
		t.Fatal("open called")
		return nil, nil
	}, nil)
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, hit, err := c.Get(context.Background(), "k"); hit || err != nil {
		t.Errorf("Get after Close = %v, %v; want miss", hit, err)
	}
}

func TestLazyOpenFailureFallsBackToNull(t *testing.T) {
	ctx := context.Background()
	var reported []error
	c := NewLazy(func(context.Context) (Cache, error) {
		return nil, ErrNetwork
	}, func(err error) { reported = append(reported, err) })

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Errorf("Set: %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get = %v, %v; want miss", hit, err)
	}
	if len(reported) != 1 || !errors.Is(reported[0], ErrNetwork) {
		t.Errorf("reported = %v, want one ErrNetwork", reported)
	}
}
