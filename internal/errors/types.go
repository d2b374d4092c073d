// Package errors defines the structured error type shared by the node-path
// codec, the structure editor, the component loader and the configuration
// layer.
//
// Rendering never returns these errors to the page: the renderer degrades a
// failing node to an HTML comment and records an Issue instead. Editing and
// path parsing return *SiteError values so callers can tell "nothing
// happened" apart from success.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// SiteError is a structured error type with context.
type SiteError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Structure string
	Path      string
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Structure != "" {
		parts = append(parts, "structure:"+e.Structure)
	}

	if e.Path != "" {
		parts = append(parts, "path:"+e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code, so the package level
// sentinels below match any error carrying the same code.
func (e *SiteError) Is(target error) bool {
	var t *SiteError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SiteError) WithContext(key string, value interface{}) *SiteError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithStructure records the structure label the error relates to.
func (e *SiteError) WithStructure(label string) *SiteError {
	e.Structure = label

	return e
}

// WithPath records the node path the error relates to.
func (e *SiteError) WithPath(path string) *SiteError {
	e.Path = path

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a lookup error.
func NewNotFoundError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound reports whether err is a lookup failure.
func IsNotFound(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeNotFound
	}

	return false
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeSecurity
	}

	return false
}

// CodeOf returns the code of a SiteError, or ErrCodeInternalError for any
// other non-nil error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var se *SiteError
	if errors.As(err, &se) {
		return se.Code
	}

	return ErrCodeInternalError
}

// Common error codes.
const (
	ErrCodeInvalidPath         = "ERR_INVALID_PATH"
	ErrCodeNodeNotFound        = "ERR_NODE_NOT_FOUND"
	ErrCodeCannotDeleteRoot    = "ERR_CANNOT_DELETE_ROOT"
	ErrCodeNoChildrenContainer = "ERR_NO_CHILDREN_CONTAINER"
	ErrCodeInvalidNode         = "ERR_INVALID_NODE"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeComponentNotFound   = "ERR_COMPONENT_NOT_FOUND"
	ErrCodeInvalidName         = "ERR_INVALID_NAME"
	ErrCodeStructureNotFound   = "ERR_STRUCTURE_NOT_FOUND"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound        = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed         = "ERR_WRITE_FAILED"
	ErrCodeNoHistory           = "ERR_NO_HISTORY"
	ErrCodeInvalidCommand      = "ERR_INVALID_COMMAND"
	ErrCodeEditorDisabled      = "ERR_EDITOR_DISABLED"
	ErrCodeInternalError       = "ERR_INTERNAL"
)

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidPathSentinel         = NewValidationError(ErrCodeInvalidPath, "invalid path")
	ErrNodeNotFoundSentinel        = NewNotFoundError(ErrCodeNodeNotFound, "node not found")
	ErrCannotDeleteRootSentinel    = NewValidationError(ErrCodeCannotDeleteRoot, "cannot delete root")
	ErrNoChildrenContainerSentinel = NewValidationError(ErrCodeNoChildrenContainer, "no children container")
	ErrInvalidNodeSentinel         = NewValidationError(ErrCodeInvalidNode, "invalid node")
)

// Helper functions for common errors

// ErrInvalidPath creates a path grammar error.
func ErrInvalidPath(path, reason string) *SiteError {
	return NewValidationError(ErrCodeInvalidPath, fmt.Sprintf("invalid node path %q: %s", path, reason)).
		WithPath(path)
}

// ErrNodeNotFound creates a node lookup error.
func ErrNodeNotFound(path string) *SiteError {
	return NewNotFoundError(ErrCodeNodeNotFound, "node not found").WithPath(path)
}

// ErrCannotDeleteRoot is returned when a delete targets the empty path.
func ErrCannotDeleteRoot() *SiteError {
	return NewValidationError(ErrCodeCannotDeleteRoot, "the root node cannot be deleted")
}

// ErrNoChildrenContainer is returned when an insert or append has no
// collection to splice into.
func ErrNoChildrenContainer(path string) *SiteError {
	return NewValidationError(ErrCodeNoChildrenContainer, "target has no children or slots collection").
		WithPath(path)
}

// ErrInvalidNode creates a node shape error.
func ErrInvalidNode(reason string) *SiteError {
	return NewValidationError(ErrCodeInvalidNode, "invalid node: "+reason)
}

// ErrComponentNotFound creates a component not found error.
func ErrComponentNotFound(name string) *SiteError {
	return NewNotFoundError(ErrCodeComponentNotFound, "component not found: "+name)
}

// ErrStructureNotFound creates a missing structure file error.
func ErrStructureNotFound(ref string) *SiteError {
	return NewNotFoundError(ErrCodeStructureNotFound, "structure not found").WithStructure(ref)
}

// ErrInvalidName creates a name validation error for components and
// structures.
func ErrInvalidName(name string) *SiteError {
	return NewSecurityError(ErrCodeInvalidName, "invalid name: "+name)
}
