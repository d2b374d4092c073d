package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/services"
)

type renderOptions struct {
	lang   string
	path   string
	id     string
	params []string
	full   bool
	editor bool
	strict bool
	output string
}

func newRenderCmd(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <structure>",
		Short: "Render a structure to HTML",
		Long: `Render a page, the menu, the footer or a component template to HTML.
Structures are named page:<name>, menu, footer or component:<name>. Nodes that
cannot be rendered become HTML comments and are reported on stderr.

Examples:
  quicksite render page:home               # Page body only
  quicksite render page:home --full        # Menu, page and footer
  quicksite render page:home --path 0.2    # One node
  quicksite render menu --lang fr -o menu.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.lang, "lang", "", "Render language (default is site.default_lang)")
	cmd.Flags().StringVar(&opts.path, "path", "", "Render only the node at this path")
	cmd.Flags().StringVar(&opts.id, "id", "", "Route id appended to {{__current_page}}")
	cmd.Flags().StringSliceVar(&opts.params, "param", nil, "Route parameters appended to {{__current_page}}")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Render a page with the menu and footer")
	cmd.Flags().BoolVar(&opts.editor, "editor", false, "Add editor data attributes and the issue overlay")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any node could not be rendered")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write HTML to a file instead of stdout")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, target string, opts *renderOptions) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}
	ref, err := project.ParseRef(target)
	if err != nil {
		return err
	}

	svc := services.NewRenderService(e.cfg, e.project, e.logger)
	req := services.RenderRequest{Lang: opts.lang, ID: opts.id, Params: opts.params}
	if cmd.Flags().Changed("editor") {
		req.Editor = &opts.editor
	}

	var out *services.Output
	switch {
	case opts.path != "":
		out, err = svc.RenderNode(cmd.Context(), ref, opts.path, req)
	case opts.full && ref.Kind == project.RefPage:
		out, err = svc.RenderPage(cmd.Context(), ref.Name, req)
	case ref.Kind == project.RefComponent:
		out, err = svc.Preview(cmd.Context(), ref.Name, nil, req)
	default:
		out, err = svc.RenderRef(cmd.Context(), ref, req)
	}
	if err != nil {
		return err
	}

	if err := writeHTML(cmd, opts.output, out.HTML+out.Overlay); err != nil {
		return err
	}
	return reportIssues(cmd, out, opts.strict)
}

func writeHTML(cmd *cobra.Command, file, html string) error {
	if file == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), html+"\n")
		return err
	}
	if err := os.WriteFile(file, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return nil
}

// reportIssues lists degraded nodes on stderr.
func reportIssues(cmd *cobra.Command, out *services.Output, strict bool) error {
	records := services.IssueRecords(out.Issues)
	for _, r := range records {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s [%s] %s\n", r.Severity, r.Path, r.Kind, r.Message)
	}
	if strict && len(records) > 0 {
		return fmt.Errorf("%d node(s) could not be rendered", len(records))
	}
	return nil
}
