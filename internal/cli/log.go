// Package cli implements the depsync command-line interface.
//
// Commands load depsync.toml from the project root (--project, default the
// working directory), open the declared repositories and drive the
// resolver, reconciler and path assembler.
//
// # Commands
//
//   - init: write a project file and create the directory layout
//   - sync: bring lib/<scope> in line with the declared dependencies
//   - resolve: print the resolved dependency tree
//   - path: print the module path for compile, compile-test, run or test
//   - graph: render the resolution as DOT or SVG
//   - updates: list newer versions and optionally pin them
//   - purge: remove managed archives and fingerprints
//   - serve: expose a local repository over HTTP
//   - cache: manage the descriptor cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context; sync runs tag theirs with a run id.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// withRunID returns a child of l that tags every entry with a fresh run id,
// and the id itself.
func withRunID(l *log.Logger) (*log.Logger, string) {
	id := uuid.NewString()
	return l.With("run", id[:8]), id
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Synced compile (1.234s)"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
