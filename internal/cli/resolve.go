package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/render"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		scopes  []string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved dependency tree",
		Long: `Resolve every scope and print the dependency tree. Nothing is written to
the managed directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseScopes(scopes)
			if err != nil {
				return err
			}
			resolutions, err := c.resolveScopes(cmd.Context(), selected, noCache)
			if err != nil {
				return err
			}
			for i, res := range resolutions {
				if i > 0 {
					fmt.Println()
				}
				printTree(res)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to resolve (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScopes)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the descriptor cache")

	return cmd
}

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	scope    string
	format   string
	output   string
	detailed bool
	noCache  bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{scope: deps.Compile.String(), format: string(render.FormatDOT)}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph of a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scope, "scope", "s", opts.scope, "scope to render")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScopes)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include repository and depth in labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the descriptor cache")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	scope, err := deps.ParseScope(opts.scope)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	resolutions, err := c.resolveScopes(ctx, []deps.Scope{scope}, opts.noCache)
	if err != nil {
		return err
	}
	data, err := render.Render(ctx, resolutions[0], format, render.Options{Detailed: opts.detailed})
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "" && opts.output != "-" {
		printSuccess("Rendered %s graph", scope)
		printFile(opts.output)
	}
	return nil
}

// resolveScopes resolves each scope in order behind a spinner.
func (c *CLI) resolveScopes(ctx context.Context, scopes []deps.Scope, noCache bool) ([]*deps.Resolution, error) {
	ws, err := c.openWorkspace(ctx, workspaceOpts{noCache: noCache})
	if err != nil {
		return nil, err
	}
	defer ws.close()

	logger := loggerFromContext(ctx)
	out := make([]*deps.Resolution, 0, len(scopes))
	for _, s := range scopes {
		spinner := newSpinnerWithContext(ctx, "Resolving "+s.String()+"...")
		spinner.Start()
		prog := newProgress(logger)

		res, err := ws.resolver.Resolve(ctx, s, declaredFor(ws.scopes, s))
		spinner.Stop()
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", s, err)
		}
		prog.done("Resolved "+s.String(), "dependencies", len(res.Dependencies))
		out = append(out, res)
	}
	return out, nil
}
