package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/buildinfo"
	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "depsync"

	// defaultRepositoryURL is written by init when no repository is given.
	defaultRepositoryURL = "https://repo1.maven.org/maven2/"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	projectDir string // --project flag
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "depsync resolves and synchronizes Maven dependencies",
		Long: `depsync resolves the dependencies declared in depsync.toml against Maven
repositories, keeps lib/<scope> in sync with the resolved archives and prints
the module paths needed to compile, run and test.`,
		Version:      buildinfo.Resolved(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.projectDir, "project", "p", ".", "project root containing "+project.FileName)

	root.AddCommand(c.initCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.updatesCommand())
	root.AddCommand(c.purgeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Workspace Factory
// =============================================================================

// workspace is a loaded project with its repositories opened.
type workspace struct {
	project  *project.Project
	scopes   *deps.DependencyScopes
	resolver *deps.Resolver
	cache    *cache.Lazy
}

// workspaceOpts controls how repositories are opened.
type workspaceOpts struct {
	noCache bool // Use a NullCache for descriptors
	refresh bool // Bypass cached descriptors
}

// openWorkspace loads the project and opens its repositories. The caller
// must call close.
func (c *CLI) openWorkspace(ctx context.Context, opts workspaceOpts) (*workspace, error) {
	logger := loggerFromContext(ctx)

	p, err := project.Load(c.projectDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded project", "file", p.Path, "repositories", len(p.File.Repositories))

	scopes, err := p.Scopes()
	if err != nil {
		return nil, err
	}

	// Opened on first use, so a fast-path sync never touches the backend.
	ch := cache.NewLazy(func(ctx context.Context) (cache.Cache, error) {
		return p.OpenCache(ctx, opts.noCache)
	}, func(err error) {
		logger.Warn("Descriptor cache unavailable", "error", err)
	})

	repos, err := p.Repositories(project.RepositoryOptions{Cache: ch, Refresh: opts.refresh})
	if err != nil {
		ch.Close()
		return nil, err
	}

	resolver := deps.NewResolver(repos, deps.Options{Logger: logger.Debugf})
	return &workspace{project: p, scopes: scopes, resolver: resolver, cache: ch}, nil
}

func (w *workspace) close() {
	if w.cache != nil {
		_ = w.cache.Close()
	}
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseScopes converts --scope values into scopes. No values selects every
// scope.
func parseScopes(names []string) ([]deps.Scope, error) {
	if len(names) == 0 {
		return deps.Scopes, nil
	}
	out := make([]deps.Scope, 0, len(names))
	for _, n := range names {
		s, err := deps.ParseScope(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
