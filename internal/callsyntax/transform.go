package callsyntax

import (
	"regexp"
	"strings"
)

// Blocked replaces a call the whitelist refuses.
const Blocked = "/* blocked */"

var (
	callPattern = regexp.MustCompile(`\{\{call:([A-Za-z_][A-Za-z0-9_]*)(?::(.*?))?\}\}`)

	// A transformed call: dotted target, then zero or more bare keywords or
	// single-quoted strings.
	emittedPattern = regexp.MustCompile(
		`([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)\(\s*` +
			`(?:(?:event|this|'(?:[^'\\]|\\.)*')\s*(?:,\s*(?:event|this|'(?:[^'\\]|\\.)*')\s*)*)?\)`)

	// The same call, anchored at the scan position.
	leadingCallPattern = regexp.MustCompile(`\A` + emittedPattern.String())
)

// Transformer rewrites call syntax against a Registry.
type Transformer struct {
	registry Registry
}

// NewTransformer returns a Transformer bound to registry.
func NewTransformer(registry Registry) *Transformer {
	return &Transformer{registry: registry}
}

// HasCalls reports whether value contains call syntax.
func HasCalls(value string) bool {
	return callPattern.MatchString(value)
}

// Transform replaces every {{call:fn:args}} in value with fn's target call.
// Runs of whitespace, ';' and ',' between calls collapse to "; "; any other
// text is kept so that Validate rejects the result.
func (t *Transformer) Transform(value string) string {
	matches := callPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value
	}

	var b strings.Builder
	prev := 0
	for i, m := range matches {
		gap := value[prev:m[0]]
		switch {
		case isSeparatorOnly(gap):
			if i > 0 {
				b.WriteString("; ")
			}
		default:
			b.WriteString(gap)
		}

		name := value[m[2]:m[3]]
		hasArgs := m[4] >= 0
		var rawArgs string
		if hasArgs {
			rawArgs = value[m[4]:m[5]]
		}
		b.WriteString(t.call(name, rawArgs, hasArgs))
		prev = m[1]
	}

	if tail := value[prev:]; !isSeparatorOnly(tail) {
		b.WriteString(tail)
	}

	return b.String()
}

func (t *Transformer) call(name, rawArgs string, hasArgs bool) string {
	if t.registry == nil || !t.registry.IsAllowed(name) {
		return Blocked
	}
	spec, ok := t.registry.Resolve(name)
	if !ok {
		return Blocked
	}

	var args []string
	if hasArgs && strings.TrimSpace(rawArgs) != "" {
		args = strings.Split(rawArgs, ",")
	}
	if !spec.Accepts(len(args)) {
		return Blocked
	}

	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = renderArg(strings.TrimSpace(a))
	}
	return spec.Target + "(" + strings.Join(rendered, ", ") + ")"
}

// Validate reports whether out consists only of calls to whitelisted targets,
// block comments and separators, with at least one call. out is scanned once
// from left to right the way a JS engine reads it, so quotes inside comments
// and comment markers inside strings cannot hide other code.
func (t *Transformer) Validate(out string) bool {
	if t.registry == nil {
		return false
	}
	allowed := make(map[string]struct{})
	for _, name := range t.registry.Names() {
		if spec, ok := t.registry.Resolve(name); ok {
			allowed[spec.Target] = struct{}{}
		}
	}

	calls := 0
	for i := 0; i < len(out); {
		switch c := out[i]; {
		case isSeparator(rune(c)):
			i++
		case strings.HasPrefix(out[i:], "/*"):
			end := strings.Index(out[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += 2 + end + 2
		default:
			m := leadingCallPattern.FindString(out[i:])
			if m == "" {
				return false
			}
			if _, ok := allowed[m[:strings.IndexByte(m, '(')]]; !ok {
				return false
			}
			calls++
			i += len(m)
		}
	}
	return calls > 0
}

// TransformAndValidate is the renderer entry point: it returns the rewritten
// value and whether it may be emitted.
func (t *Transformer) TransformAndValidate(value string) (string, bool) {
	if !HasCalls(value) {
		return "", false
	}
	out := t.Transform(value)
	return out, t.Validate(out)
}

func renderArg(a string) string {
	if a == "event" || a == "this" {
		return a
	}
	return "'" + escapeJS(a) + "'"
}

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

func escapeJS(s string) string {
	return jsEscaper.Replace(s)
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ';', ',':
		return true
	}
	return false
}

func isSeparatorOnly(s string) bool {
	for _, r := range s {
		if !isSeparator(r) {
			return false
		}
	}
	return true
}
