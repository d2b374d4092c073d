package project

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/structure"
)

// Command actions.
const (
	ActionGet      = "get"
	ActionSet      = "set"
	ActionDelete   = "delete"
	ActionInsert   = "insert"
	ActionAppend   = "append"
	ActionAnnotate = "annotate"
	ActionUndo     = "undo"
)

// Command is one structural edit addressed by ref and node path, as sent by
// the editor API and built by the node CLI commands.
type Command struct {
	Action    string          `json:"action" validate:"required,oneof=get set delete insert append annotate undo"`
	Structure string          `json:"structure" validate:"required,max=140"`
	Path      string          `json:"path" validate:"max=512"`
	Node      json.RawMessage `json:"node,omitempty"`
	Position  string          `json:"position,omitempty" validate:"omitempty,oneof=before after"`
}

var validate = validator.New()

// Validate checks the command shape. Node content is checked by the editor.
func (c *Command) Validate() error {
	if err := validate.Struct(c); err != nil {
		return qserrors.NewValidationError(qserrors.ErrCodeInvalidCommand, describeValidation(err))
	}
	if (c.Action == ActionInsert || c.Action == ActionAppend) && len(c.Node) == 0 {
		return qserrors.NewValidationError(qserrors.ErrCodeInvalidCommand, c.Action+" requires a node")
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// Apply runs cmd against the project and reports the outcome in the editor
// result shape. Mutations are committed before Apply returns.
func (p *Project) Apply(ctx context.Context, cmd Command) structure.OperationResult {
	res, err := p.apply(ctx, cmd)
	if err != nil {
		p.logger.Warn(ctx, err, "Command failed", "action", cmd.Action,
			"structure", cmd.Structure, "path", cmd.Path)
	}
	return structure.NewOperationResult(res, err)
}

func (p *Project) apply(ctx context.Context, cmd Command) (*structure.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ref, err := ParseRef(cmd.Structure)
	if err != nil {
		return nil, err
	}

	if cmd.Action == ActionUndo {
		s, err := p.Undo(ctx, ref)
		if err != nil {
			return nil, err
		}
		return &structure.Result{Structure: s, Action: ActionUndo}, nil
	}

	s, err := p.Load(ref)
	if err != nil {
		return nil, err
	}

	var node any
	if len(cmd.Node) > 0 {
		if err := json.Unmarshal(cmd.Node, &node); err != nil {
			return nil, qserrors.NewValidationError(qserrors.ErrCodeInvalidJSON, "node is not valid JSON")
		}
	}

	var res *structure.Result
	switch cmd.Action {
	case ActionGet:
		n, err := structure.Get(s, cmd.Path)
		if err != nil {
			return nil, err
		}
		return &structure.Result{Structure: n, Path: cmd.Path}, nil
	case ActionAnnotate:
		return &structure.Result{Structure: structure.Annotate(s)}, nil
	case ActionSet:
		res, err = structure.ReplaceOrDelete(s, cmd.Path, node)
	case ActionDelete:
		res, err = structure.ReplaceOrDelete(s, cmd.Path, nil)
	case ActionInsert:
		pos := structure.After
		if cmd.Position != "" {
			if pos, err = structure.ParsePosition(cmd.Position); err != nil {
				return nil, err
			}
		}
		res, err = structure.Insert(s, cmd.Path, node, pos)
	case ActionAppend:
		res, err = structure.Append(s, cmd.Path, node)
	}
	if err != nil {
		return nil, err
	}

	if err := p.Save(ctx, ref, res.Structure, string(res.Action)); err != nil {
		return nil, err
	}
	return res, nil
}
