package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var outputFormats = []string{FormatTable, FormatJSON, FormatYAML}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", FormatTable,
		"Output format ("+strings.Join(outputFormats, "|")+")")
}

// validateFormat rejects unknown formats and suggests the closest one.
func validateFormat(format string) error {
	format = strings.ToLower(format)
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	for _, f := range outputFormats {
		if strings.HasPrefix(f, format) || strings.HasPrefix(format, f) {
			return fmt.Errorf("unsupported format %q, did you mean %q?", format, f)
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(outputFormats, ", "))
}

// writeOutput encodes v as JSON or YAML, or calls table for the table
// format.
func writeOutput(w io.Writer, format string, v any, table func(*tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// readJSONArg decodes an inline JSON argument. A leading @ names a file and
// @- reads standard input.
func readJSONArg(cmd *cobra.Command, arg string, v any) error {
	data := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if name == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
