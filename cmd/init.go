package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/services"
)

type initOptions struct {
	example bool
	langs   []string
	force   bool
}

func newInitCmd(a *app) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"i"},
		Short:   "Create the project layout and configuration file",
		Long: `Create the structures, components and translate directories and a
.quicksite.yml configuration file. Existing files are kept unless --force is
given.

Examples:
  quicksite init                      # Initialize the current directory
  quicksite init my-site --example    # New directory with a sample page
  quicksite init --lang en,fr         # Multilingual site`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.example, "example", false, "Write a sample page, menu, footer, component and catalog")
	cmd.Flags().StringSliceVar(&opts.langs, "lang", nil, "Site languages, the first one is the default")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts *initOptions) error {
	proj, err := services.NewInitService().InitProject(services.InitOptions{
		ProjectDir: dir,
		Example:    opts.example,
		Langs:      opts.langs,
		Force:      opts.force,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized quicksite project in %s\n", proj.Root())
	if opts.example {
		fmt.Fprintln(out, "Run 'quicksite serve' and open /page/home to see the example.")
	}
	return nil
}
