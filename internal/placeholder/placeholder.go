// Package placeholder substitutes {{name}} tokens in component templates and
// the {{__name}} system tokens driven by render context.
//
// Substitution is non-destructive: a token whose key is absent from the data
// is left exactly as written, so partial and preview renders show the
// original placeholder instead of blank content.
package placeholder

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SystemPrefix marks names in the system namespace.
const SystemPrefix = "__"

var (
	tokenPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_.-]*)\}\}`)
	barePattern  = regexp.MustCompile(`^\{\{([A-Za-z_][A-Za-z0-9_.-]*)\}\}$`)
)

// Substitute returns a copy of template with every {{name}} token in string
// values replaced by the stringified data[name]. Arrays and object values are
// walked recursively; object keys are never rewritten. System names are left
// for SubstituteSystem.
func Substitute(template any, data map[string]any) any {
	if len(data) == 0 {
		return clone(template)
	}
	return walk(template, func(s string) string {
		return SubstituteString(s, data)
	})
}

// SubstituteString replaces the tokens of a single string.
func SubstituteString(s string, data map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := tok[2 : len(tok)-2]
		if strings.HasPrefix(name, SystemPrefix) {
			return tok
		}
		v, ok := data[name]
		if !ok {
			return tok
		}
		return Stringify(v)
	})
}

// Stringify renders a data value the way it appears in markup: strings as
// is, numbers in shortest decimal form, booleans as true/false, nil as the
// empty string and anything else as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// ExtractNames returns the sorted, de-duplicated placeholder names used by a
// template in textKey values, attribute values and nested component data.
// System names are excluded.
func ExtractNames(template any) []string {
	seen := map[string]struct{}{}
	collectNode(template, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectNode(v any, seen map[string]struct{}) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectNode(item, seen)
		}
	case map[string]any:
		for key, val := range t {
			switch key {
			case "textKey":
				collectValue(val, seen)
			case "params", "data":
				collectValue(val, seen)
			case "children":
				collectNode(val, seen)
			case "slots":
				if slots, ok := val.(map[string]any); ok {
					for _, items := range slots {
						collectNode(items, seen)
					}
				}
			}
		}
	}
}

func collectValue(v any, seen map[string]struct{}) {
	switch t := v.(type) {
	case string:
		for _, m := range tokenPattern.FindAllStringSubmatch(t, -1) {
			if !strings.HasPrefix(m[1], SystemPrefix) {
				seen[m[1]] = struct{}{}
			}
		}
	case []any:
		for _, item := range t {
			collectValue(item, seen)
		}
	case map[string]any:
		for _, item := range t {
			collectValue(item, seen)
		}
	}
}

// BareName reports whether s consists of exactly one {{name}} token and
// returns the name.
func BareName(s string) (string, bool) {
	m := barePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasTokens reports whether s contains at least one {{name}} token.
func HasTokens(s string) bool {
	return tokenPattern.MatchString(s)
}

func walk(v any, fn func(string) string) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = walk(item, fn)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = walk(item, fn)
		}
		return out
	default:
		return v
	}
}

func clone(v any) any {
	return walk(v, func(s string) string { return s })
}
