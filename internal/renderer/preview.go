package renderer

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/placeholder"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// PreviewLabel is the structure label used when previewing a component.
func PreviewLabel(name string) string {
	return "component:" + name
}

// RenderComponentPreview renders a component in isolation. When sample is
// nil, every placeholder the template uses gets a generated value.
func (r *Renderer) RenderComponentPreview(ctx context.Context, name string, sample map[string]any) (string, error) {
	if err := validation.ValidateName(name); err != nil {
		return "", qserrors.ErrInvalidName(name)
	}
	if r.deps.Components == nil {
		return "", qserrors.ErrComponentNotFound(name)
	}
	tmpl, ok := r.deps.Components.Load(ctx, name)
	if !ok {
		return "", qserrors.ErrComponentNotFound(name)
	}

	if sample == nil {
		sample = MockData(tmpl)
	}

	node := map[string]any{
		structure.KeyComponent: name,
		structure.KeyData:      sample,
	}
	return r.RenderStructure(ctx, node, PreviewLabel(name)), nil
}

// MockData derives sample values for every placeholder in template. Names
// used as a whole text node are marked raw so they are not looked up as
// translation keys.
func MockData(template any) map[string]any {
	names := placeholder.ExtractNames(template)
	wholeText := textPlaceholders(template)

	data := make(map[string]any, len(names))
	for _, name := range names {
		v := MockString(name)
		if wholeText[name] {
			v = RawPrefix + v
		}
		data[name] = v
	}
	return data
}

func textPlaceholders(template any) map[string]bool {
	out := map[string]bool{}
	structure.Walk(template, func(_ nodepath.Path, node map[string]any) bool {
		if key, ok := node[structure.KeyTextKey].(string); ok {
			if name, ok := placeholder.BareName(key); ok {
				out[name] = true
			}
		}
		return true
	})
	return out
}

var titler = cases.Title(language.English)

// MockString returns a realistic sample value for a placeholder name.
func MockString(name string) string {
	switch strings.ToLower(name) {
	case "title", "heading":
		return "Sample Title"
	case "name", "username":
		return "John Doe"
	case "email":
		return "john@example.com"
	case "message", "content", "text", "description":
		return "This is sample content for the component preview. Lorem ipsum dolor sit amet, consectetur adipiscing elit."
	case "url", "link", "href":
		return "https://example.com"
	case "image", "src", "img":
		return "https://example.com/sample.png"
	case "variant", "type", "kind":
		return "primary"
	case "color":
		return "blue"
	case "size":
		return "medium"
	default:
		words := strings.FieldsFunc(name, func(r rune) bool {
			return r == '_' || r == '-' || r == '.'
		})
		return "Sample " + titler.String(strings.Join(words, " "))
	}
}
