package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/callsyntax"
	"github.com/conneroisu/quicksite/internal/registry"
)

// Listable kinds.
const (
	listComponents = "components"
	listPages      = "pages"
	listFunctions  = "functions"
)

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:       "list [components|pages|functions]",
		Aliases:   []string{"l", "ls"},
		Short:     "List components, pages or call functions",
		ValidArgs: []string{listComponents, listPages, listFunctions},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		Long: `List the components of the project with their placeholders and slots,
the pages, or the functions that event handlers may call.

Examples:
  quicksite list                    # Components as a table
  quicksite list pages -f json
  quicksite list functions -f yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			kind := listComponents
			if len(args) == 1 {
				kind = args[0]
			}
			return runList(cmd, a, kind, format)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func runList(cmd *cobra.Command, a *app, kind, format string) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch kind {
	case listPages:
		pages, err := e.project.Pages()
		if err != nil {
			return err
		}
		return writeOutput(out, format, pages, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "PAGE\tSTRUCTURE")
			for _, name := range pages {
				fmt.Fprintf(tw, "%s\tpage:%s\n", name, name)
			}
		})

	case listFunctions:
		set, err := e.project.FunctionSet(cmd.Context())
		if err != nil {
			return err
		}
		specs := make([]callsyntax.FunctionSpec, 0, len(set.Names()))
		for _, name := range set.Names() {
			spec, _ := set.Resolve(name)
			specs = append(specs, spec)
		}
		return writeOutput(out, format, specs, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "NAME\tTARGET\tARGS")
			for _, s := range specs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Target, argRange(s))
			}
		})

	default:
		components, err := e.project.Components(e.logger).List()
		if err != nil {
			return err
		}
		return writeOutput(out, format, components, func(tw *tabwriter.Writer) {
			componentTable(tw, components)
		})
	}
}

func componentTable(tw *tabwriter.Writer, components []*registry.ComponentInfo) {
	fmt.Fprintln(tw, "NAME\tVALID\tPLACEHOLDERS\tSLOTS\tUSES")
	for _, c := range components {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", c.Name, c.Valid,
			dash(c.Placeholders), dash(c.Slots), dash(c.Dependencies))
	}
}

func argRange(s callsyntax.FunctionSpec) string {
	if s.MaxArgs == callsyntax.Unbounded {
		return fmt.Sprintf("%d+", s.MinArgs)
	}
	if s.MinArgs == s.MaxArgs {
		return fmt.Sprint(s.MinArgs)
	}
	return fmt.Sprintf("%d-%d", s.MinArgs, s.MaxArgs)
}

func dash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
