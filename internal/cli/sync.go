package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/observability"
	"github.com/matzehuels/depsync/pkg/observability/prom"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// syncOpts holds the command-line flags for the sync command.
type syncOpts struct {
	scopes      []string // limit to these scopes
	force       bool     // reconcile even when the fingerprint matches
	refresh     bool     // bypass cached descriptors
	noCache     bool     // do not use the descriptor cache at all
	metricsFile string   // write Prometheus metrics here after the run
}

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	var opts syncOpts

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize lib/<scope> with the declared dependencies",
		Long: `Resolve the dependencies of every scope and make each managed directory
contain exactly the resolved archives. A scope whose configuration is
unchanged since its last successful sync is skipped without network access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.scopes, "scope", "s", nil, "scopes to sync (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScopes)
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "reconcile even if nothing changed")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-download cached descriptors")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the descriptor cache")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

func (c *CLI) runSync(ctx context.Context, opts syncOpts) error {
	scopes, err := parseScopes(opts.scopes)
	if err != nil {
		return err
	}

	logger, runID := withRunID(loggerFromContext(ctx))
	ctx = withLogger(ctx, logger)
	logger.Debug("Starting sync", "id", runID, "force", opts.force)

	var reg *prometheus.Registry
	if opts.metricsFile != "" {
		reg = prometheus.NewRegistry()
		prom.New(reg).Register()
		defer observability.Reset()
	}

	ws, err := c.openWorkspace(ctx, workspaceOpts{noCache: opts.noCache, refresh: opts.refresh})
	if err != nil {
		return err
	}
	defer ws.close()

	targets := ws.project.Targets(scopes...)
	if len(targets) == 0 {
		printWarning("No managed directory for the selected scopes")
		return nil
	}

	syncOptions := ws.project.ReconcileOptions()
	syncOptions.Force = opts.force
	syncOptions.Logger = logger.Debugf
	syncer := reconcile.NewSyncer(ws.resolver, syncOptions)

	var syncErr error
	for _, t := range targets {
		prog := newProgress(logger)
		res, err := syncer.SyncOne(ctx, declaredFor(ws.scopes, t.Scope), t)
		if err != nil {
			syncErr = fmt.Errorf("sync %s: %w", t.Scope, err)
			break
		}
		prog.done("Synced "+t.Scope.String(), "fast", res.FastPath)
		printSyncResult(res, ws.project.Root)
	}

	if reg != nil {
		if err := prom.WriteTextfile(opts.metricsFile, reg); err != nil {
			logger.Warn("Failed to write metrics", "file", opts.metricsFile, "error", err)
		} else {
			logger.Debug("Wrote metrics", "file", opts.metricsFile)
		}
	}
	return syncErr
}

// declaredFor returns the declarations of s, never nil.
func declaredFor(scopes *deps.DependencyScopes, s deps.Scope) *deps.DependencySet {
	if set := scopes.Get(s); set != nil {
		return set
	}
	return deps.NewDependencySet()
}
