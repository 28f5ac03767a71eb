package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/project"
)

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	var (
		name       string
		repository string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create " + project.FileName + " and the project directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Init(c.projectDir, name, repository)
			if err != nil {
				return err
			}
			layout := p.Layout()
			if err := layout.CreateProjectStructure(); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("Created project", "root", p.Root)

			printSuccess("Initialized %s", StyleHighlight.Render(p.File.Name))
			printFile(p.Path)
			printKeyValue("repository", repository)
			printKeyValue("sources", relPath(p.Root, layout.SrcMainJava()))
			printKeyValue("libraries", relPath(p.Root, layout.Lib()))
			printNextStep("Add dependencies to "+project.FileName+", then run", appName+" sync")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")
	cmd.Flags().StringVar(&repository, "repository", defaultRepositoryURL, "URL of the first repository")

	return cmd
}
