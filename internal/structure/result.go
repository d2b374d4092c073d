package structure

import (
	qserrors "github.com/conneroisu/quicksite/internal/errors"
)

// OperationResult is the JSON descriptor returned to editor tooling. A
// failed operation always carries Error and Code so callers can tell
// "nothing happened" apart from success.
type OperationResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	Action     Action `json:"action,omitempty"`
	InsertedAt *int   `json:"insertedAt,omitempty"`
	Path       string `json:"path,omitempty"`
	Structure  any    `json:"structure,omitempty"`
}

// NewOperationResult converts the return values of an editor operation.
func NewOperationResult(res *Result, err error) OperationResult {
	if err != nil {
		return OperationResult{
			Success: false,
			Error:   err.Error(),
			Code:    qserrors.CodeOf(err),
		}
	}
	if res == nil {
		return OperationResult{
			Success: false,
			Error:   "no result",
			Code:    qserrors.ErrCodeInternalError,
		}
	}

	out := OperationResult{
		Success:   true,
		Action:    res.Action,
		Path:      res.Path,
		Structure: res.Structure,
	}
	if res.Action == ActionInserted || res.Action == ActionAppended {
		at := res.InsertedAt
		out.InsertedAt = &at
	}
	return out
}
