package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/project"
	"github.com/matzehuels/depsync/pkg/updates"
)

// updatesOpts holds the command-line flags for the updates command.
type updatesOpts struct {
	constraint  string
	prereleases bool
	interactive bool
	apply       bool
	noCache     bool
}

// updatesCommand creates the updates command.
func (c *CLI) updatesCommand() *cobra.Command {
	var opts updatesOpts

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "List newer versions of the declared dependencies",
		Long: `List newer versions of every declared dependency, looked up in the first
repository that knows it. With --interactive, choose upgrades in a picker and
write them to depsync.toml; with --apply, write every listed upgrade.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interactive && opts.apply {
				return fmt.Errorf("--interactive and --apply are mutually exclusive")
			}
			return c.runUpdates(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.constraint, "constraint", "c", "", `semver constraint for candidates (e.g. "^1", "~2.3")`)
	cmd.Flags().BoolVar(&opts.prereleases, "pre", false, "include qualified versions such as -beta or -rc1")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose upgrades interactively")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "write every listed upgrade to "+project.FileName)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the descriptor cache")

	return cmd
}

func (c *CLI) runUpdates(ctx context.Context, opts updatesOpts) error {
	// Version listings change; always bypass cached metadata.
	ws, err := c.openWorkspace(ctx, workspaceOpts{noCache: opts.noCache, refresh: true})
	if err != nil {
		return err
	}
	defer ws.close()

	checker, err := updates.New(ws.resolver.Repositories(), updates.Options{
		Constraint:  opts.constraint,
		Prereleases: opts.prereleases,
	})
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Checking for updates...")
	spinner.Start()
	prog := newProgress(loggerFromContext(ctx))
	list, err := checker.Check(ctx, ws.scopes)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Checked updates", "available", len(list))

	if len(list) == 0 {
		printSuccess("All dependencies are up to date")
		return nil
	}
	updates.Sort(list)

	chosen := list
	switch {
	case opts.interactive:
		final, err := tea.NewProgram(NewUpdatePickerModel(list)).Run()
		if err != nil {
			return fmt.Errorf("run picker: %w", err)
		}
		chosen = final.(UpdatePickerModel).Selected()
		if len(chosen) == 0 {
			printInfo("No updates selected")
			return nil
		}
	case !opts.apply:
		fmt.Println(updatesTable(list))
		printNextStep("Apply", appName+" updates --interactive")
		return nil
	}

	return applyUpdates(ws.project, chosen)
}

// applyUpdates pins the chosen versions in the project file.
func applyUpdates(p *project.Project, chosen []updates.Update) error {
	changed := 0
	for _, u := range chosen {
		if p.SetVersion(u.Scope, u.Dependency.Key(), u.Latest) {
			changed++
			printDetail("%s %s: %s → %s", u.Scope, u.Dependency.Key(), u.Current(), u.Latest)
		}
	}
	if changed == 0 {
		printInfo("Nothing to change")
		return nil
	}
	if err := p.Save(); err != nil {
		return fmt.Errorf("save %s: %w", project.FileName, err)
	}
	printSuccess("Updated %d dependencies", changed)
	printFile(p.Path)
	printNextStep("Synchronize", appName+" sync")
	return nil
}
