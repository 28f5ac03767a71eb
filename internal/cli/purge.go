package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/project"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// purgeCommand creates the purge command.
func (c *CLI) purgeCommand() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove managed archives and sync state",
		Long: `Delete every file the reconciler manages in lib/<scope>, keeping files with
a reserved prefix, and forget the stored fingerprints so the next sync
starts from scratch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseScopes(scopes)
			if err != nil {
				return err
			}
			p, err := project.Load(c.projectDir)
			if err != nil {
				return err
			}

			opts := p.ReconcileOptions()
			opts.Logger = loggerFromContext(cmd.Context()).Debugf
			syncer := reconcile.NewSyncer(deps.NewResolver(nil, deps.Options{}), opts)

			targets := p.Targets(selected...)
			deleted, err := syncer.Purge(targets)
			for _, t := range targets {
				files, ok := deleted[t.Scope]
				if !ok {
					continue
				}
				printSuccess("%s: removed %d files", t.Scope, len(files))
				printFile(relPath(p.Root, t.Dir))
			}
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to purge (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScopes)

	return cmd
}
