package cache

import (
	"context"
	"sync"
	"time"
)

// Lazy defers opening a backend until the first Get, Set or Delete. A run
// that never touches the cache never connects to Redis or creates a cache
// directory.
//
// When open fails, onError is called once and Lazy behaves as a NullCache
// for the rest of its life.
type Lazy struct {
	open    func(context.Context) (Cache, error)
	onError func(error)

	mu    sync.Mutex
	inner Cache // nil until first use
}

// NewLazy wraps open. onError may be nil.
func NewLazy(open func(context.Context) (Cache, error), onError func(error)) *Lazy {
	return &Lazy{open: open, onError: onError}
}

func (l *Lazy) get(ctx context.Context) Cache {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		c, err := l.open(ctx)
		if err != nil {
			if l.onError != nil {
				l.onError(err)
			}
			c = NewNullCache()
		}
		l.inner = c
	}
	return l.inner
}

// Opened reports whether a backend has been opened.
func (l *Lazy) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner != nil
}

func (l *Lazy) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return l.get(ctx).Get(ctx, key)
}

func (l *Lazy) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return l.get(ctx).Set(ctx, key, data, ttl)
}

func (l *Lazy) Delete(ctx context.Context, key string) error {
	return l.get(ctx).Delete(ctx, key)
}

// Close closes the backend if one was opened. Later calls see a NullCache.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	inner := l.inner
	l.inner = NewNullCache()
	if inner == nil {
		return nil
	}
	return inner.Close()
}

var _ Cache = (*Lazy)(nil)
