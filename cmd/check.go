package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/services"
)

type checkOptions struct {
	langs      []string
	components bool
	allLangs   bool
	format     string
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Render and audit every structure",
		Long: `Render every page, the menu and the footer, then audit the HTML for
hazards and accessibility slips. Degraded nodes are listed as issues. The
command fails when the audit finds an error, a structure cannot be read or a
component includes itself through other components.

Examples:
  quicksite check
  quicksite check --components --all-langs
  quicksite check -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return runCheck(cmd, a, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.langs, "lang", nil, "Languages to render in")
	cmd.Flags().BoolVar(&opts.allLangs, "all-langs", false, "Render in every configured language")
	cmd.Flags().BoolVar(&opts.components, "components", false, "Also preview every component")
	addFormatFlag(cmd, &opts.format)
	return cmd
}

func runCheck(cmd *cobra.Command, a *app, opts *checkOptions) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}

	langs := opts.langs
	if opts.allLangs {
		langs = e.cfg.Site.Languages
	}

	render := services.NewRenderService(e.cfg, e.project, e.logger)
	summary, err := services.NewCheckService(render, e.logger).Run(cmd.Context(), services.CheckOptions{
		Langs:      langs,
		Components: opts.components,
	})
	if err != nil {
		return err
	}

	err = writeOutput(cmd.OutOrStdout(), opts.format, summary, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "STRUCTURE\tLANG\tISSUES\tERRORS\tWARNINGS\tSTATUS")
		for _, r := range summary.Results {
			errs, warns := 0, 0
			if r.Report != nil {
				errs, warns = r.Report.Summary.Errors, r.Report.Summary.Warnings
			}
			status := "ok"
			if r.Failed() {
				status = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", r.Structure, r.Lang, len(r.Issues), errs, warns, status)
		}
		for _, cycle := range summary.Cycles {
			fmt.Fprintf(tw, "component cycle\t%s\n", strings.Join(cycle, " -> "))
		}
		fmt.Fprintf(tw, "\n%d structure(s), %d issue(s), %d failed\n", summary.Structures, summary.Issues, summary.Failed)
	})
	if err != nil {
		return err
	}

	if !summary.OK() {
		return fmt.Errorf("check failed: %d structure(s) failed, %d component cycle(s)",
			summary.Failed, len(summary.Cycles))
	}
	return nil
}
