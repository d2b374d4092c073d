package project

import (
	"strings"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/validation"
)

// RefKind says which kind of structure a Ref names.
type RefKind int

const (
	RefPage RefKind = iota
	RefMenu
	RefFooter
	RefComponent
)

// String returns the ref prefix of the kind.
func (k RefKind) String() string {
	switch k {
	case RefPage:
		return "page"
	case RefMenu:
		return "menu"
	case RefFooter:
		return "footer"
	case RefComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Ref names one editable structure: "page:<name>", "menu", "footer" or
// "component:<name>". Its string form doubles as the editor structure label.
type Ref struct {
	Kind RefKind
	Name string
}

// Page returns the ref of a page.
func Page(name string) Ref { return Ref{Kind: RefPage, Name: name} }

// Component returns the ref of a component template.
func Component(name string) Ref { return Ref{Kind: RefComponent, Name: name} }

// ParseRef parses a structure reference. Names are checked like any other
// user-supplied file name.
func ParseRef(s string) (Ref, error) {
	switch s {
	case "menu":
		return Ref{Kind: RefMenu}, nil
	case "footer":
		return Ref{Kind: RefFooter}, nil
	}

	prefix, name, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, qserrors.NewValidationError(qserrors.ErrCodeInvalidName,
			"structure ref must be page:<name>, component:<name>, menu or footer: "+s)
	}
	if err := validation.ValidateName(name); err != nil {
		return Ref{}, qserrors.ErrInvalidName(name)
	}
	switch prefix {
	case "page":
		return Page(name), nil
	case "component":
		return Component(name), nil
	default:
		return Ref{}, qserrors.NewValidationError(qserrors.ErrCodeInvalidName,
			"unknown structure kind: "+prefix)
	}
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	switch r.Kind {
	case RefMenu, RefFooter:
		return r.Kind.String()
	default:
		return r.Kind.String() + ":" + r.Name
	}
}

// slug is a file-name safe form of the ref.
func (r Ref) slug() string {
	if r.Name == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + "-" + r.Name
}
