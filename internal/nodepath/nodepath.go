// Package nodepath parses and formats dot-notation node identifiers.
//
// A path walks a structure from its root collection: every numeric segment
// indexes into the current collection, and the two-part segment
// "slots.<name>" switches from a node into one of its named slot
// collections. "0.2.1" and "0.slots.header.1" are both valid; a path always
// ends on an index so that it names a node rather than a collection. The
// empty string is the root.
//
// The string form is the wire contract between the editor UI and the
// structural API, so Format(Parse(s)) == s for every valid s.
package nodepath

import (
	"strconv"
	"strings"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
)

// SlotKeyword introduces a slot segment.
const SlotKeyword = "slots"

// maxIndexDigits bounds numeric segments; no structure is that wide.
const maxIndexDigits = 6

// SegmentKind discriminates the Segment variants.
type SegmentKind int

const (
	SegmentIndex SegmentKind = iota
	SegmentSlot
)

// Segment is one step of a Path: either Index(n) or Slot(name).
type Segment struct {
	Kind  SegmentKind
	Index int
	Name  string
}

// Index builds an index segment.
func Index(i int) Segment {
	return Segment{Kind: SegmentIndex, Index: i}
}

// Slot builds a slot segment.
func Slot(name string) Segment {
	return Segment{Kind: SegmentSlot, Name: name}
}

// String renders the segment in wire form.
func (s Segment) String() string {
	if s.Kind == SegmentSlot {
		return SlotKeyword + "." + s.Name
	}
	return strconv.Itoa(s.Index)
}

// Path is an ordered list of segments. The zero value is the root.
type Path []Segment

// Parse validates id against the canonical grammar and returns its segments.
func Parse(id string) (Path, error) {
	if id == "" {
		return Path{}, nil
	}

	for _, r := range id {
		if !isPathRune(r) {
			return nil, qserrors.ErrInvalidPath(id, "unsupported character "+strconv.QuoteRune(r))
		}
	}

	raw := strings.Split(id, ".")
	path := make(Path, 0, len(raw))

	for i := 0; i < len(raw); i++ {
		part := raw[i]
		switch {
		case part == "":
			return nil, qserrors.ErrInvalidPath(id, "empty segment")
		case part == SlotKeyword:
			if i+1 >= len(raw) {
				return nil, qserrors.ErrInvalidPath(id, "slot segment without a name")
			}
			if len(path) == 0 {
				return nil, qserrors.ErrInvalidPath(id, "a path cannot start with a slot")
			}
			name := raw[i+1]
			if !IsIdentifier(name) {
				return nil, qserrors.ErrInvalidPath(id, "invalid slot name "+strconv.Quote(name))
			}
			if path[len(path)-1].Kind == SegmentSlot {
				return nil, qserrors.ErrInvalidPath(id, "slot must follow an index")
			}
			path = append(path, Slot(name))
			i++
		default:
			n, err := parseIndex(part)
			if err != nil {
				return nil, qserrors.ErrInvalidPath(id, err.Error())
			}
			path = append(path, Index(n))
		}
	}

	if path[len(path)-1].Kind != SegmentIndex {
		return nil, qserrors.ErrInvalidPath(id, "path must end with an index")
	}

	return path, nil
}

// MustParse is Parse for literals known to be valid; it panics otherwise.
func MustParse(id string) Path {
	p, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return p
}

// Format joins segments with '.'; it is the inverse of Parse.
func Format(p Path) string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.String()
	}
	return strings.Join(parts, ".")
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return Format(p)
}

// IsRoot reports whether p addresses the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Last returns the final index of a non-root path.
func (p Path) Last() (int, bool) {
	if len(p) == 0 || p[len(p)-1].Kind != SegmentIndex {
		return 0, false
	}
	return p[len(p)-1].Index, true
}

// Container returns the segments that address the collection holding the
// node at p: the parent node path plus a trailing slot segment when the node
// lives in a slot.
func (p Path) Container() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].clone()
}

// Parent returns the path of the node whose collection holds p.
func (p Path) Parent() Path {
	c := p.Container()
	if len(c) > 0 && c[len(c)-1].Kind == SegmentSlot {
		c = c[:len(c)-1]
	}
	return c
}

// Child returns the path of the i-th child of p.
func (p Path) Child(i int) Path {
	out := p.clone()
	return append(out, Index(i))
}

// SlotChild returns the path of the i-th node of slot name under p.
func (p Path) SlotChild(name string, i int) Path {
	out := p.clone()
	return append(out, Slot(name), Index(i))
}

// WithLast returns a copy of p whose final index is replaced by i.
func (p Path) WithLast(i int) Path {
	out := p.clone()
	if len(out) > 0 {
		out[len(out)-1] = Index(i)
	}
	return out
}

func (p Path) clone() Path {
	out := make(Path, len(p), len(p)+2)
	copy(out, p)
	return out
}

// IsIdentifier reports whether s is a valid slot name.
func IsIdentifier(s string) bool {
	if s == "" || s == SlotKeyword {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

func parseIndex(part string) (int, error) {
	if len(part) > maxIndexDigits {
		return 0, errSegment("index too large")
	}
	if len(part) > 1 && part[0] == '0' {
		return 0, errSegment("leading zero in index " + strconv.Quote(part))
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, errSegment("non-numeric segment " + strconv.Quote(part))
		}
	}
	return strconv.Atoi(part)
}

type errSegment string

func (e errSegment) Error() string { return string(e) }

func isPathRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
