package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/version"
)

func newVersionCmd() *cobra.Command {
	var format string
	var short, detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// No configuration is needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetBuildInfo()
			out := cmd.OutOrStdout()

			switch format {
			case FormatJSON, FormatYAML:
				return writeOutput(out, format, info, nil)
			case "text":
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
			}

			switch {
			case short:
				fmt.Fprintln(out, info.Short())
			case detailed:
				fmt.Fprintln(out, info.Detailed())
				if info.IsRelease() {
					fmt.Fprintln(out, "Build type: release")
				} else {
					fmt.Fprintln(out, "Build type: development")
				}
			default:
				fmt.Fprintf(out, "quicksite %s\n", info.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")
	return cmd
}
