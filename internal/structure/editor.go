package structure

import (
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/nodepath"
)

// Action names the mutation an editor operation performed.
type Action string

const (
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionInserted Action = "inserted"
	ActionAppended Action = "appended"
)

// Position selects where Insert splices the new node relative to its target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// ParsePosition accepts "before" and "after"; anything else is an error.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case Before, After:
		return Position(s), nil
	default:
		return "", qserrors.NewValidationError(qserrors.ErrCodeInvalidNode,
			"position must be \"before\" or \"after\", got \""+s+"\"")
	}
}

// Result is the outcome of a successful editor operation. Structure is a new
// root; the caller's structure is never modified.
type Result struct {
	Structure  any
	Action     Action
	InsertedAt int
	Path       string
}

// collection is a node list inside a cloned root together with a way to
// write a resized list back into its owner.
type collection struct {
	items []any
	store func([]any)
}

func (c *collection) set(items []any) {
	c.items = items
	c.store(items)
}

// Get returns a copy of the node at path.
func Get(structure any, path string) (any, error) {
	p, err := nodepath.Parse(path)
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		if structure == nil {
			return nil, qserrors.ErrNodeNotFound(path)
		}
		return Clone(structure), nil
	}

	root := structure
	coll, err := resolveCollection(&root, p.Container(), false)
	if err != nil {
		return nil, qserrors.ErrNodeNotFound(path)
	}
	idx, _ := p.Last()
	if idx >= len(coll.items) {
		return nil, qserrors.ErrNodeNotFound(path)
	}
	return Clone(coll.items[idx]), nil
}

// ReplaceOrDelete replaces the node at path with newNode, or deletes it when
// newNode is an empty placeholder (see IsEmptyPlaceholder). Deleting shifts
// later siblings down so indices stay dense. The root cannot be deleted;
// replacing the root returns newNode as the new structure.
func ReplaceOrDelete(structure any, path string, newNode any) (*Result, error) {
	p, err := nodepath.Parse(path)
	if err != nil {
		return nil, err
	}

	deleting := IsEmptyPlaceholder(newNode)

	if p.IsRoot() {
		if deleting {
			return nil, qserrors.ErrCannotDeleteRoot()
		}
		replacement, err := prepareRoot(newNode)
		if err != nil {
			return nil, err
		}
		return &Result{Structure: replacement, Action: ActionUpdated, Path: path}, nil
	}

	var replacement any
	if !deleting {
		if replacement, err = prepareNode(newNode); err != nil {
			return nil, err
		}
	}

	root := Clone(structure)
	coll, err := resolveCollection(&root, p.Container(), false)
	if err != nil {
		return nil, qserrors.ErrNodeNotFound(path)
	}
	idx, _ := p.Last()
	if idx >= len(coll.items) {
		return nil, qserrors.ErrNodeNotFound(path)
	}

	if deleting {
		items := append(coll.items[:idx:idx], coll.items[idx+1:]...)
		coll.set(items)
		return &Result{Structure: root, Action: ActionDeleted, Path: path}, nil
	}

	coll.items[idx] = replacement
	return &Result{Structure: root, Action: ActionUpdated, Path: path}, nil
}

// Insert splices newNode into the collection that holds the node at path,
// either at the node's index (Before) or just after it (After).
func Insert(structure any, path string, newNode any, pos Position) (*Result, error) {
	p, err := nodepath.Parse(path)
	if err != nil {
		return nil, err
	}
	if pos != Before && pos != After {
		_, err := ParsePosition(string(pos))
		return nil, err
	}
	if p.IsRoot() {
		return nil, qserrors.ErrNoChildrenContainer(path)
	}

	node, err := prepareNode(newNode)
	if err != nil {
		return nil, err
	}

	root := Clone(structure)
	coll, err := resolveCollection(&root, p.Container(), false)
	if err != nil {
		return nil, qserrors.ErrNodeNotFound(path)
	}
	idx, _ := p.Last()
	if idx >= len(coll.items) {
		return nil, qserrors.ErrNodeNotFound(path)
	}

	at := idx
	if pos == After {
		at = idx + 1
	}
	coll.set(splice(coll.items, at, node))

	return &Result{
		Structure:  root,
		Action:     ActionInserted,
		InsertedAt: at,
		Path:       nodepath.Format(p.WithLast(at)),
	}, nil
}

// Append adds newNode as the last child of the tag node at parentPath. An
// empty parentPath appends to the root sequence of an array structure, or to
// the children of an object root. A missing children list is created.
func Append(structure any, parentPath string, newNode any) (*Result, error) {
	p, err := nodepath.Parse(parentPath)
	if err != nil {
		return nil, err
	}

	node, err := prepareNode(newNode)
	if err != nil {
		return nil, err
	}

	root := Clone(structure)

	var coll *collection
	if p.IsRoot() {
		coll, err = rootCollection(&root, true)
		if err != nil {
			return nil, err
		}
	} else {
		parent, err := resolveCollection(&root, p.Container(), false)
		if err != nil {
			return nil, qserrors.ErrNodeNotFound(parentPath)
		}
		idx, _ := p.Last()
		if idx >= len(parent.items) {
			return nil, qserrors.ErrNodeNotFound(parentPath)
		}
		target, ok := parent.items[idx].(map[string]any)
		if !ok || KindOf(target) != KindTag {
			return nil, qserrors.ErrNoChildrenContainer(parentPath)
		}
		coll, err = childrenOf(target, true)
		if err != nil {
			return nil, qserrors.ErrNoChildrenContainer(parentPath)
		}
	}

	at := len(coll.items)
	coll.set(append(coll.items, node))

	return &Result{
		Structure:  root,
		Action:     ActionAppended,
		InsertedAt: at,
		Path:       nodepath.Format(p.Child(at)),
	}, nil
}

// resolveCollection walks container (a node path minus its final index) and
// returns the collection it names inside *root.
func resolveCollection(root *any, container nodepath.Path, create bool) (*collection, error) {
	coll, err := rootCollection(root, create)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(container); i++ {
		seg := container[i]
		if seg.Kind != nodepath.SegmentIndex || seg.Index >= len(coll.items) {
			return nil, qserrors.ErrNodeNotFoundSentinel
		}
		node, ok := coll.items[seg.Index].(map[string]any)
		if !ok {
			return nil, qserrors.ErrNodeNotFoundSentinel
		}
		if i+1 < len(container) && container[i+1].Kind == nodepath.SegmentSlot {
			coll, err = slotOf(node, container[i+1].Name, create)
			i++
		} else {
			coll, err = childrenOf(node, create)
		}
		if err != nil {
			return nil, err
		}
	}

	return coll, nil
}

func rootCollection(root *any, create bool) (*collection, error) {
	switch r := (*root).(type) {
	case []any:
		return &collection{items: r, store: func(v []any) { *root = v }}, nil
	case map[string]any:
		if create && KindOf(r) != KindTag {
			return nil, qserrors.ErrNoChildrenContainer("")
		}
		return childrenOf(r, create)
	default:
		return nil, qserrors.ErrNoChildrenContainer("")
	}
}

func childrenOf(node map[string]any, create bool) (*collection, error) {
	raw, ok := node[KeyChildren]
	if !ok || raw == nil {
		if !create {
			return nil, qserrors.ErrNodeNotFoundSentinel
		}
		raw = []any{}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, qserrors.ErrNoChildrenContainerSentinel
	}
	return &collection{items: items, store: func(v []any) { node[KeyChildren] = v }}, nil
}

func slotOf(node map[string]any, name string, create bool) (*collection, error) {
	slots, ok := node[KeySlots].(map[string]any)
	if !ok {
		if !create {
			return nil, qserrors.ErrNodeNotFoundSentinel
		}
		slots = map[string]any{}
		node[KeySlots] = slots
	}
	raw, ok := slots[name]
	if !ok {
		if !create {
			return nil, qserrors.ErrNodeNotFoundSentinel
		}
		raw = []any{}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, qserrors.ErrNoChildrenContainerSentinel
	}
	return &collection{items: items, store: func(v []any) { slots[name] = v }}, nil
}

func splice(items []any, at int, v any) []any {
	out := make([]any, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, v)
	return append(out, items[at:]...)
}

// prepareNode validates a caller-supplied node and returns a clean copy with
// annotations removed.
func prepareNode(v any) (any, error) {
	if err := ValidateNode(v); err != nil {
		return nil, err
	}
	return StripAnnotations(v), nil
}

// prepareRoot accepts either a single node or a sequence of nodes.
func prepareRoot(v any) (any, error) {
	if items, ok := v.([]any); ok {
		for _, item := range items {
			if err := ValidateNode(item); err != nil {
				return nil, err
			}
		}
		return StripAnnotations(items), nil
	}
	return prepareNode(v)
}
