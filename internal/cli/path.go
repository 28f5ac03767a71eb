package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/modpath"
	"github.com/matzehuels/depsync/pkg/project"
)

// pathCommand creates the path command.
func (c *CLI) pathCommand() *cobra.Command {
	var (
		separator string
		lines     bool
	)

	purposes := make([]string, len(modpath.Purposes))
	for i, p := range modpath.Purposes {
		purposes[i] = p.String()
	}

	cmd := &cobra.Command{
		Use:   "path <" + strings.Join(purposes, "|") + ">",
		Short: "Print the module path for compiling, running or testing",
		Long: `Print the ordered module path assembled from the managed archives, the
local dependencies and the build output directories. Run sync first so the
managed directories are populated.`,
		ValidArgs: purposes,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, err := modpath.ParsePurpose(args[0])
			if err != nil {
				return err
			}
			p, err := project.Load(c.projectDir)
			if err != nil {
				return err
			}
			scopes, err := p.Scopes()
			if err != nil {
				return err
			}

			a := &modpath.Assembler{Layout: p.Layout(), Scopes: scopes}
			entries, err := a.Path(purpose)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("Assembled path", "purpose", purpose, "entries", len(entries))

			switch {
			case lines:
				for _, e := range entries {
					fmt.Println(e)
				}
			case separator != "":
				fmt.Println(strings.Join(entries, separator))
			default:
				fmt.Println(modpath.Join(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&separator, "separator", "", fmt.Sprintf("entry separator (default %q)", string(os.PathListSeparator)))
	cmd.Flags().BoolVar(&lines, "lines", false, "print one entry per line")

	return cmd
}
