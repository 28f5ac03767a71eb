// Package transport fetches raw bytes from repository storage.
//
// A [Transport] is the narrow byte-level collaborator repositories read
// through. [HTTP] serves http(s) repositories with an optional response cache
// and bounded retries; [S3] serves s3:// repositories through the MinIO
// client. Paths are always relative to the transport's base location.
package transport

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/depsync/pkg/cache"
)

const httpTimeout = 30 * time.Second

// ErrNotFound is returned when the requested path does not exist.
var ErrNotFound = cache.ErrNotFound

// ErrNetwork is returned for transport failures (timeouts, connection errors, 5xx responses).
var ErrNetwork = cache.ErrNetwork

// Transport reads files relative to a base location.
type Transport interface {
	// Get returns the content stored at path. A missing path yields an
	// error wrapping ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether path exists without downloading it.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the absolute location of path, for messages.
	URL(path string) string
}

func join(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
