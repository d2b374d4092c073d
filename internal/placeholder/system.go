package placeholder

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// System names.
const (
	CurrentPage = "__current_page"
	Lang        = "__lang"
	BaseURL     = "__base_url"
)

var systemPattern = regexp.MustCompile(`\{\{(__[A-Za-z0-9_]+)((?:;[A-Za-z0-9_]+=[A-Za-z0-9_-]*)*)\}\}`)

// System is the render context that feeds system placeholders.
type System struct {
	Lang    string
	Page    string
	ID      string
	Params  []string
	BaseURL string
}

// Route joins page, id and params with "/", skipping empty parts.
func (s System) Route() string {
	parts := make([]string, 0, 2+len(s.Params))
	for _, p := range append([]string{s.Page, s.ID}, s.Params...) {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// SubstituteSystem replaces system tokens throughout value:
//
//	{{__current_page}}          the current route, e.g. "blog/42"
//	{{__current_page;lang=fr}}  the same route under another language, "/fr/blog/42"
//	{{__lang}}                  the current language
//	{{__base_url}}              the configured base URL
//
// Unknown names, unknown parameters and invalid language tags are left
// untouched.
func SubstituteSystem(value any, sys System) any {
	return walk(value, func(s string) string {
		return SubstituteSystemString(s, sys)
	})
}

// SubstituteSystemString is SubstituteSystem for a single string.
func SubstituteSystemString(s string, sys System) string {
	if !strings.Contains(s, "{{"+SystemPrefix) {
		return s
	}
	return systemPattern.ReplaceAllStringFunc(s, func(tok string) string {
		m := systemPattern.FindStringSubmatch(tok)
		name, rawParams := m[1], m[2]
		params := parseParams(rawParams)

		switch name {
		case CurrentPage:
			if len(params) == 0 {
				return sys.Route()
			}
			lang, ok := params["lang"]
			if !ok || len(params) != 1 {
				return tok
			}
			if _, err := language.Parse(lang); err != nil {
				return tok
			}
			route := sys.Route()
			if route == "" {
				return "/" + lang + "/"
			}
			return "/" + lang + "/" + route
		case Lang:
			if len(params) != 0 {
				return tok
			}
			return sys.Lang
		case BaseURL:
			if len(params) != 0 {
				return tok
			}
			return sys.BaseURL
		default:
			return tok
		}
	})
}

func parseParams(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(strings.TrimPrefix(raw, ";"), ";") {
		k, v, _ := strings.Cut(pair, "=")
		out[k] = v
	}
	return out
}
