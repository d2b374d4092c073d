package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/services"
)

type previewOptions struct {
	data   string
	lang   string
	editor bool
	output string
}

func newPreviewCmd(a *app) *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:     "preview <component>",
		Aliases: []string{"p"},
		Short:   "Render a component in isolation",
		Long: `Render a component template with sample data. Without --data every
placeholder gets a generated sample value.

Examples:
  quicksite preview card
  quicksite preview card --data '{"title":"__RAW__Hello"}'
  quicksite preview card --data @card.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "Sample data as a JSON object, @file or @- for stdin")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Render language")
	cmd.Flags().BoolVar(&opts.editor, "editor", false, "Add editor data attributes")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write HTML to a file instead of stdout")
	return cmd
}

func runPreview(cmd *cobra.Command, a *app, name string, opts *previewOptions) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}

	var sample map[string]any
	if opts.data != "" {
		if err := readJSONArg(cmd, opts.data, &sample); err != nil {
			return err
		}
	}

	req := services.RenderRequest{Lang: opts.lang}
	if cmd.Flags().Changed("editor") {
		req.Editor = &opts.editor
	}
	out, err := services.NewRenderService(e.cfg, e.project, e.logger).Preview(cmd.Context(), name, sample, req)
	if err != nil {
		return err
	}
	if err := writeHTML(cmd, opts.output, out.HTML); err != nil {
		return err
	}
	return reportIssues(cmd, out, false)
}
