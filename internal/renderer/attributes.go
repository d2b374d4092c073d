package renderer

import (
	"strings"

	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/placeholder"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// Conditional attribute keys: {"condition": "flag", "value": "..."}.
const (
	condKey  = "condition"
	valueKey = "value"
)

// writeAttributes runs every param through the attribute pipeline and writes
// the survivors in name order.
func (p *pass) writeAttributes(b *strings.Builder, params map[string]any, path nodepath.Path) {
	for _, name := range structure.SortedKeys(params) {
		value, bare, ok := p.attribute(name, params[name], path)
		if !ok {
			continue
		}
		if bare {
			b.WriteByte(' ')
			b.WriteString(name)
			continue
		}
		writeAttr(b, name, value)
	}
}

// attribute returns the escaped-ready value of one attribute, whether it is
// a bare boolean attribute, and whether it is emitted at all.
func (p *pass) attribute(name string, v any, path nodepath.Path) (value string, bare, ok bool) {
	lower := strings.ToLower(name)
	if !validation.IsValidAttrName(name) {
		p.security(path, "invalid_attribute_name", "dropped attribute with invalid name", map[string]interface{}{
			"attribute": name,
		})
		return "", false, false
	}
	if lower == "srcdoc" || strings.HasPrefix(lower, editorAttrPrefix) {
		p.security(path, "reserved_attribute", "dropped reserved attribute "+lower, nil)
		return "", false, false
	}

	if cond, isMap := v.(map[string]any); isMap {
		flag, _ := cond[condKey].(string)
		if flag == "" || !p.r.opts.Context.Flags[flag] {
			return "", false, false
		}
		v = cond[valueKey]
	}

	switch t := v.(type) {
	case nil:
		return "", false, false
	case bool:
		if validation.IsEventAttr(name) {
			return "", false, false
		}
		return "", t, t
	case string:
		if t == "" {
			return "", false, false
		}
	case float64, float32, int, int64:
	default:
		return "", false, false
	}
	s := placeholder.Stringify(v)

	if validation.IsEventAttr(name) {
		out, valid := p.r.transformer.TransformAndValidate(s)
		if !valid {
			p.security(path, "blocked_event_handler", "dropped event handler "+lower, map[string]interface{}{
				"attribute": lower,
				"value":     s,
			})
			return "", false, false
		}
		return out, false, true
	}

	raw, isRaw := strings.CutPrefix(s, RawPrefix)
	if isRaw {
		s = raw
	} else if validation.IsTranslatableAttr(lower) && validation.LooksLikeTranslationKey(s) {
		s = p.translate(s)
	}

	if validation.IsURLAttr(lower) {
		s = placeholder.SubstituteSystemString(s, p.r.system)
		normalized, blocked := p.r.urls.Normalize(s)
		if blocked {
			p.security(path, "blocked_url_scheme", "replaced unsafe URL in "+lower, map[string]interface{}{
				"attribute": lower,
				"value":     s,
			})
		}
		s = normalized
	}

	if lower == "style" && !validation.IsSafeStyle(s) {
		p.security(path, "unsafe_style", "dropped unsafe style", map[string]interface{}{
			"value": s,
		})
		return "", false, false
	}

	return s, false, true
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(escape(value))
	b.WriteByte('"')
}
