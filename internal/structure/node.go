// Package structure holds the JSON node model shared by the renderer and the
// structural editor.
//
// Structures are kept as decoded JSON (map[string]any, []any and scalars)
// rather than typed structs so that keys the engine does not know about
// survive a load, edit and save cycle untouched.
package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
)

// Node keys.
const (
	KeyTag       = "tag"
	KeyParams    = "params"
	KeyChildren  = "children"
	KeyTextKey   = "textKey"
	KeyComponent = "component"
	KeyData      = "data"
	KeySlots     = "slots"
	KeySlot      = "slot"
	KeyNodeID    = "_nodeId"
)

// Kind classifies a node.
type Kind int

const (
	KindInvalid Kind = iota
	KindTag
	KindText
	KindComponent
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindText:
		return "text"
	case KindComponent:
		return "component"
	default:
		return "invalid"
	}
}

// KindOf returns the kind of v, or KindInvalid when v is not an object with
// exactly one discriminating key.
func KindOf(v any) Kind {
	m, ok := v.(map[string]any)
	if !ok {
		return KindInvalid
	}

	kind := KindInvalid
	found := 0
	if _, ok := m[KeyTag]; ok {
		kind = KindTag
		found++
	}
	if _, ok := m[KeyTextKey]; ok {
		kind = KindText
		found++
	}
	if _, ok := m[KeyComponent]; ok {
		kind = KindComponent
		found++
	}
	if found != 1 {
		return KindInvalid
	}
	return kind
}

// ValidateNode checks the shape of a node and of everything beneath it.
func ValidateNode(v any) error {
	return validateNode(v, "node")
}

func validateNode(v any, where string) error {
	m, ok := v.(map[string]any)
	if !ok {
		return qserrors.ErrInvalidNode(where + " is not an object")
	}

	switch KindOf(m) {
	case KindTag:
		tag, ok := m[KeyTag].(string)
		if !ok || tag == "" {
			return qserrors.ErrInvalidNode(where + ": tag must be a non-empty string")
		}
		if p, ok := m[KeyParams]; ok && p != nil {
			if _, ok := p.(map[string]any); !ok {
				return qserrors.ErrInvalidNode(where + ": params must be an object")
			}
		}
		if _, ok := m[KeySlots]; ok {
			return qserrors.ErrInvalidNode(where + ": slots are only allowed on component nodes")
		}
		if c, ok := m[KeyChildren]; ok && c != nil {
			children, ok := c.([]any)
			if !ok {
				return qserrors.ErrInvalidNode(where + ": children must be an array")
			}
			for i, child := range children {
				if err := validateNode(child, fmt.Sprintf("%s.children[%d]", where, i)); err != nil {
					return err
				}
			}
		}
	case KindText:
		if _, ok := m[KeyTextKey].(string); !ok {
			return qserrors.ErrInvalidNode(where + ": textKey must be a string")
		}
		if err := noChildren(m, where); err != nil {
			return err
		}
		if _, ok := m[KeySlots]; ok {
			return qserrors.ErrInvalidNode(where + ": slots are only allowed on component nodes")
		}
	case KindComponent:
		name, ok := m[KeyComponent].(string)
		if !ok || name == "" {
			return qserrors.ErrInvalidNode(where + ": component must be a non-empty string")
		}
		if err := noChildren(m, where); err != nil {
			return err
		}
		if d, ok := m[KeyData]; ok && d != nil {
			if _, ok := d.(map[string]any); !ok {
				return qserrors.ErrInvalidNode(where + ": data must be an object")
			}
		}
		if s, ok := m[KeySlots]; ok && s != nil {
			slots, ok := s.(map[string]any)
			if !ok {
				return qserrors.ErrInvalidNode(where + ": slots must be an object")
			}
			for _, name := range SortedKeys(slots) {
				items, ok := slots[name].([]any)
				if !ok {
					return qserrors.ErrInvalidNode(where + ": slot " + name + " must be an array")
				}
				for i, child := range items {
					if err := validateNode(child, fmt.Sprintf("%s.slots.%s[%d]", where, name, i)); err != nil {
						return err
					}
				}
			}
		}
	default:
		return qserrors.ErrInvalidNode(where + ": exactly one of tag, textKey or component is required")
	}

	return nil
}

func noChildren(m map[string]any, where string) error {
	if _, ok := m[KeyChildren]; ok {
		return qserrors.ErrInvalidNode(where + ": children are only allowed on tag nodes")
	}
	return nil
}

// IsEmptyPlaceholder reports whether v means "delete" to ReplaceOrDelete:
// nil, an empty object or an empty string.
func IsEmptyPlaceholder(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// Clone deep-copies a decoded JSON value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode parses a structure document.
func Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &qserrors.SiteError{
			Type:    qserrors.ErrorTypeValidation,
			Code:    qserrors.ErrCodeInvalidJSON,
			Message: "invalid structure JSON",
			Cause:   err,
		}
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, nil
	default:
		return nil, qserrors.NewValidationError(qserrors.ErrCodeInvalidJSON,
			"a structure must be a JSON array or object")
	}
}

// Encode serialises a structure for storage: two-space indentation, no
// HTML escaping, trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, qserrors.NewInternalError(qserrors.ErrCodeInternalError, "encode structure", err)
	}
	return buf.Bytes(), nil
}
