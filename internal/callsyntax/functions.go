// Package callsyntax rewrites the {{call:fn:args}} micro-syntax used in
// event-handler attributes into whitelisted JavaScript calls.
//
// It is the only way structure content can produce executable handler
// code. The whitelist is injected as a Registry so the transformer itself
// never touches configuration or files.
package callsyntax

import (
	"fmt"
	"regexp"
	"sort"
)

// Namespace is the client runtime object that owns the core functions.
const Namespace = "QS"

// Unbounded marks a FunctionSpec without an upper arity limit.
const Unbounded = -1

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	targetPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
)

// FunctionSpec describes one callable function.
type FunctionSpec struct {
	Name    string `yaml:"name" json:"name"`
	Target  string `yaml:"target,omitempty" json:"target,omitempty"`
	MinArgs int    `yaml:"min_args" json:"minArgs"`
	MaxArgs int    `yaml:"max_args" json:"maxArgs"`
}

// Accepts reports whether n arguments satisfy the arity bounds.
func (f FunctionSpec) Accepts(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs == Unbounded || n <= f.MaxArgs
}

// Registry is the whitelist capability consumed by the Transformer and the
// renderer.
type Registry interface {
	IsAllowed(name string) bool
	Resolve(name string) (FunctionSpec, bool)
	Names() []string
}

func core(name string, min, max int) FunctionSpec {
	return FunctionSpec{Name: name, Target: Namespace + "." + name, MinArgs: min, MaxArgs: max}
}

// CoreFunctions returns the built-in functions of the client runtime. Each
// accepts a trailing optional argument such as event.
func CoreFunctions() []FunctionSpec {
	return []FunctionSpec{
		core("show", 1, 2),
		core("hide", 1, 2),
		core("toggle", 1, 2),
		core("toggleHide", 1, 2),
		core("addClass", 2, 3),
		core("removeClass", 2, 3),
		core("toggleClass", 2, 3),
		core("setValue", 2, 3),
		core("setText", 2, 3),
		core("redirect", 1, 2),
		core("filter", 1, 3),
		core("scrollTo", 1, 2),
		core("submit", 1, 2),
		core("copy", 1, 2),
		core("fetch", 1, 4),
	}
}

// FunctionSet is the merged whitelist of core and custom functions.
type FunctionSet struct {
	specs map[string]FunctionSpec
}

// NewFunctionSet merges custom definitions into the core set. Core names win
// on collision and such customs are reported in skipped. A custom without a
// target calls QS.<name>.
func NewFunctionSet(custom []FunctionSpec) (set *FunctionSet, skipped []string, err error) {
	set = &FunctionSet{specs: make(map[string]FunctionSpec, len(custom)+16)}
	for _, f := range CoreFunctions() {
		set.specs[f.Name] = f
	}

	for _, f := range custom {
		if !namePattern.MatchString(f.Name) {
			return nil, nil, fmt.Errorf("custom function %q: invalid name", f.Name)
		}
		if f.Target == "" {
			f.Target = Namespace + "." + f.Name
		}
		if !targetPattern.MatchString(f.Target) {
			return nil, nil, fmt.Errorf("custom function %q: invalid target %q", f.Name, f.Target)
		}
		if f.MinArgs < 0 || (f.MaxArgs != Unbounded && f.MaxArgs < f.MinArgs) {
			return nil, nil, fmt.Errorf("custom function %q: invalid arity %d..%d", f.Name, f.MinArgs, f.MaxArgs)
		}
		if isCore(f.Name) {
			skipped = append(skipped, f.Name)
			continue
		}
		set.specs[f.Name] = f
	}

	return set, skipped, nil
}

// MustCoreSet returns a FunctionSet holding only the core functions.
func MustCoreSet() *FunctionSet {
	set, _, err := NewFunctionSet(nil)
	if err != nil {
		panic(err)
	}
	return set
}

func isCore(name string) bool {
	for _, f := range CoreFunctions() {
		if f.Name == name {
			return true
		}
	}
	return false
}

// IsAllowed implements Registry.
func (s *FunctionSet) IsAllowed(name string) bool {
	_, ok := s.specs[name]
	return ok
}

// Resolve implements Registry.
func (s *FunctionSet) Resolve(name string) (FunctionSpec, bool) {
	f, ok := s.specs[name]
	return f, ok
}

// Names implements Registry; the result is sorted.
func (s *FunctionSet) Names() []string {
	names := make([]string, 0, len(s.specs))
	for name := range s.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
