package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/project"
)

func newNodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Read and edit structures by node path",
		Long: `Read and edit stored structures by node path. Paths are dot separated
child indexes ("0.2.1") and may step into a component slot ("0.slots.actions.1").
Every command prints the editor result as JSON. Edits are saved immediately and
can be reverted with 'node undo'.

Node arguments are JSON, @file or @- for stdin.

Examples:
  quicksite node get page:home 0.1
  quicksite node set page:home 0.1 '{"tag":"p","children":[{"textKey":"home.intro"}]}'
  quicksite node insert page:home 0 '{"tag":"hr"}' --position before
  quicksite node append menu '{"tag":"a","params":{"href":"/blog"}}' --parent 0
  quicksite node undo page:home`,
	}

	cmd.AddCommand(
		nodeAction(a, project.ActionGet, "get <structure> [path]", "Print a node", cobra.RangeArgs(1, 2)),
		nodeAction(a, project.ActionSet, "set <structure> <path> <node>", "Replace a node", cobra.ExactArgs(3)),
		nodeAction(a, project.ActionDelete, "delete <structure> <path>", "Delete a node", cobra.ExactArgs(2)),
		nodeAction(a, project.ActionInsert, "insert <structure> <path> <node>", "Insert a sibling next to a node", cobra.ExactArgs(3)),
		nodeAction(a, project.ActionAppend, "append <structure> <node>", "Append a child", cobra.ExactArgs(2)),
		nodeAction(a, project.ActionAnnotate, "annotate <structure>", "Print the structure with node paths", cobra.ExactArgs(1)),
		nodeAction(a, project.ActionUndo, "undo <structure>", "Restore the previous version", cobra.ExactArgs(1)),
	)
	return cmd
}

func nodeAction(a *app, action, use, short string, args cobra.PositionalArgs) *cobra.Command {
	var position, parent string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCommand(cmd, action, args, position, parent)
			if err != nil {
				return err
			}
			return runNode(cmd, a, c)
		},
	}
	switch action {
	case project.ActionInsert:
		cmd.Flags().StringVar(&position, "position", "after", "Insert before or after the node")
		addFlagValidation(cmd, "position", oneOf("before", "after"))
	case project.ActionAppend:
		cmd.Flags().StringVar(&parent, "parent", "", "Parent node path (default is the structure root)")
	}
	return cmd
}

// buildCommand maps positional arguments onto an editor command.
func buildCommand(cmd *cobra.Command, action string, args []string, position, parent string) (project.Command, error) {
	c := project.Command{Action: action, Structure: args[0]}

	var nodeArg string
	switch action {
	case project.ActionGet:
		if len(args) > 1 {
			c.Path = args[1]
		}
	case project.ActionDelete:
		c.Path = args[1]
	case project.ActionSet, project.ActionInsert:
		c.Path, nodeArg = args[1], args[2]
	case project.ActionAppend:
		c.Path, nodeArg = parent, args[1]
	}
	if action == project.ActionInsert {
		c.Position = position
	}

	if nodeArg != "" {
		var raw json.RawMessage
		if err := readJSONArg(cmd, nodeArg, &raw); err != nil {
			return c, err
		}
		c.Node = raw
	}
	return c, nil
}

func runNode(cmd *cobra.Command, a *app, c project.Command) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}

	result := e.project.Apply(cmd.Context(), c)
	if err := writeOutput(cmd.OutOrStdout(), FormatJSON, result, nil); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s failed: %s", c.Action, result.Code)
	}
	return nil
}
