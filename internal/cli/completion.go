package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/deps"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand prints a completion script for the named shell, or for
// the login shell in $SHELL when no name is given.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script for depsync commands, scopes and flags.

Without an argument the shell is taken from $SHELL.

  source <(depsync completion bash)
  depsync completion zsh > "${fpath[1]}/_depsync"
  depsync completion fish > ~/.config/fish/completions/depsync.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := filepath.Base(os.Getenv("SHELL"))
			if len(args) == 1 {
				shell = args[0]
			}
			return writeCompletion(cmd.Root(), shell, cmd.OutOrStdout())
		},
	}
}

func writeCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell", "pwsh":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("no completion for shell %q (want one of %v)", shell, completionShells)
}

// completeScopes offers scope names for --scope.
func completeScopes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(deps.Scopes))
	for _, s := range deps.Scopes {
		names = append(names, s.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
