package structure

import (
	"github.com/conneroisu/quicksite/internal/nodepath"
)

// WalkFunc is called once per node in pre-order. Returning false skips the
// node's descendants.
type WalkFunc func(path nodepath.Path, node map[string]any) bool

// Walk visits every node of a structure in pre-order: children first by
// index, then slots by sorted slot name. For an object root the root itself
// is visited with the empty path. Slot content of an object root is visited
// too, with paths that start with a slot segment and so cannot be parsed.
func Walk(structure any, fn WalkFunc) {
	walk(structure, fn, true)
}

// WalkAddressable is Walk restricted to nodes a path can reach: the slots
// of an object root are skipped.
func WalkAddressable(structure any, fn WalkFunc) {
	walk(structure, fn, false)
}

func walk(structure any, fn WalkFunc, rootSlots bool) {
	switch root := structure.(type) {
	case []any:
		walkCollection(root, nodepath.Path{}, false, "", fn)
	case map[string]any:
		if !fn(nodepath.Path{}, root) {
			return
		}
		if children, ok := root[KeyChildren].([]any); ok {
			walkCollection(children, nodepath.Path{}, false, "", fn)
		}
		if rootSlots {
			walkSlots(root, nodepath.Path{}, fn)
		}
	}
}

func walkNode(node map[string]any, path nodepath.Path, fn WalkFunc) {
	if !fn(path, node) {
		return
	}
	if children, ok := node[KeyChildren].([]any); ok {
		walkCollection(children, path, false, "", fn)
	}
	walkSlots(node, path, fn)
}

func walkSlots(node map[string]any, path nodepath.Path, fn WalkFunc) {
	if slots, ok := node[KeySlots].(map[string]any); ok {
		for _, name := range SortedKeys(slots) {
			if items, ok := slots[name].([]any); ok && nodepath.IsIdentifier(name) {
				walkCollection(items, path, true, name, fn)
			}
		}
	}
}

func walkCollection(items []any, parent nodepath.Path, slot bool, name string, fn WalkFunc) {
	for i, item := range items {
		child, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if slot {
			walkNode(child, parent.SlotChild(name, i), fn)
		} else {
			walkNode(child, parent.Child(i), fn)
		}
	}
}

// Annotate returns a deep copy of structure in which every node carries its
// own path under "_nodeId". Nodes no path can reach are left without one.
// The input is not modified.
func Annotate(structure any) any {
	out := Clone(structure)
	WalkAddressable(out, func(path nodepath.Path, node map[string]any) bool {
		node[KeyNodeID] = nodepath.Format(path)
		return true
	})
	return out
}

// StripAnnotations returns a deep copy of structure with every "_nodeId"
// removed.
func StripAnnotations(structure any) any {
	out := Clone(structure)
	Walk(out, func(_ nodepath.Path, node map[string]any) bool {
		delete(node, KeyNodeID)
		return true
	})
	return out
}

// Count returns the number of addressable nodes in structure.
func Count(structure any) int {
	n := 0
	WalkAddressable(structure, func(nodepath.Path, map[string]any) bool {
		n++
		return true
	})
	return n
}
