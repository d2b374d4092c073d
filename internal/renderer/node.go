package renderer

import (
	"fmt"
	"strings"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/placeholder"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// Editor-mode attribute names.
const (
	AttrStruct        = "data-qs-struct"
	AttrNode          = "data-qs-node"
	AttrComponent     = "data-qs-component"
	AttrComponentNode = "data-qs-component-node"
	AttrInComponent   = "data-qs-in-component"
	AttrTextKey       = "data-qs-textkey"
	AttrPlaceholder   = "data-qs-placeholder"

	editorAttrPrefix = "data-qs-"
)

func (p *pass) renderNode(b *strings.Builder, v any, path nodepath.Path, sc scope) {
	node, ok := v.(map[string]any)
	if !ok {
		p.fail(b, path, qserrors.IssueKindStructural, "invalid node")
		return
	}

	switch structure.KindOf(node) {
	case structure.KindText:
		p.renderText(b, node, path)
	case structure.KindTag:
		p.renderTag(b, node, path, sc)
	case structure.KindComponent:
		p.renderComponent(b, node, path, sc)
	default:
		p.fail(b, path, qserrors.IssueKindStructural, "invalid node")
	}
}

func (p *pass) renderText(b *strings.Builder, node map[string]any, path nodepath.Path) {
	key := placeholder.Stringify(node[structure.KeyTextKey])
	if key == "" {
		return
	}

	if raw, ok := strings.CutPrefix(key, RawPrefix); ok {
		b.WriteString(escape(placeholder.SubstituteSystemString(raw, p.r.system)))
		return
	}

	if name, ok := placeholder.BareName(key); ok {
		if p.r.opts.EditorMode {
			fmt.Fprintf(b, `<span %s="%s">%s</span>`, AttrPlaceholder, escape(name), escape(key))
			return
		}
		b.WriteString(escape(key))
		return
	}

	text := escape(p.translate(key))
	if p.r.opts.EditorMode {
		fmt.Fprintf(b, `<span %s="%s">%s</span>`, AttrTextKey, escape(key), text)
		return
	}
	b.WriteString(text)
}

func (p *pass) translate(key string) string {
	if p.r.deps.Translator == nil {
		return key
	}
	return p.r.deps.Translator.Translate(key, nil)
}

func (p *pass) renderTag(b *strings.Builder, node map[string]any, path nodepath.Path, sc scope) {
	tag, _ := node[structure.KeyTag].(string)
	if !validation.IsValidTagName(tag) {
		p.security(path, "invalid_tag_name", "invalid tag name", map[string]interface{}{
			"tag": tag,
		})
		b.WriteString(Comment("invalid tag name"))
		return
	}
	tag = strings.ToLower(tag)

	if validation.IsDeniedTag(tag) {
		p.security(path, "blocked_tag", "blocked tag "+tag, map[string]interface{}{
			"tag": tag,
		})
		b.WriteString(Comment("blocked tag: " + tag))
		return
	}
	if p.r.allowed != nil && !p.r.allowed[tag] {
		p.fail(b, path, qserrors.IssueKindStructural, "tag not allowed: "+tag)
		return
	}

	b.WriteByte('<')
	b.WriteString(tag)
	params, _ := node[structure.KeyParams].(map[string]any)
	p.writeAttributes(b, params, path)
	if p.r.opts.EditorMode {
		p.writeEditorAttributes(b, path, sc)
	}
	b.WriteByte('>')

	if validation.IsVoidElement(tag) {
		return
	}

	inner := scope{frame: sc.frame}
	if !p.renderSlot(b, node, sc) {
		children, _ := node[structure.KeyChildren].([]any)
		for i, child := range children {
			p.renderNode(b, child, path.Child(i), inner)
		}
	}

	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// renderSlot renders the content the invoking component passed for the
// node's slot, in the invoker's scope. It reports false when the node has no
// slot or nothing was passed, so the template children act as fallback.
func (p *pass) renderSlot(b *strings.Builder, node map[string]any, sc scope) bool {
	name, ok := node[structure.KeySlot].(string)
	if !ok || sc.frame == nil {
		return false
	}
	items, ok := sc.frame.slots[name].([]any)
	if !ok {
		return false
	}
	f := sc.frame
	outer := scope{frame: f.outer.frame}
	for i, item := range items {
		p.renderNode(b, item, f.invocation.SlotChild(name, i), outer)
	}
	return true
}

func (p *pass) writeEditorAttributes(b *strings.Builder, path nodepath.Path, sc scope) {
	writeAttr(b, AttrStruct, p.label)
	writeAttr(b, AttrNode, path.String())
	f := sc.frame
	if f == nil {
		return
	}
	if sc.top {
		writeAttr(b, AttrComponent, f.name)
		writeAttr(b, AttrComponentNode, f.invocation.String())
		if f.outer.frame != nil {
			writeAttr(b, AttrInComponent, "true")
		}
		return
	}
	writeAttr(b, AttrInComponent, "true")
}

func (p *pass) renderComponent(b *strings.Builder, node map[string]any, path nodepath.Path, sc scope) {
	name, _ := node[structure.KeyComponent].(string)
	if err := validation.ValidateName(name); err != nil {
		p.fail(b, path, qserrors.IssueKindStructural, "invalid component name")
		return
	}
	if len(p.stack) >= p.r.opts.MaxComponentDepth {
		p.logger.Warn(p.ctx, nil, "Component nesting too deep",
			"component", name, "path", path.String(), "max_depth", p.r.opts.MaxComponentDepth)
		p.fail(b, path, qserrors.IssueKindStructural, "component depth exceeded: "+name)
		return
	}

	if p.r.deps.Components == nil {
		p.fail(b, path, qserrors.IssueKindLookup, "component not found: "+name)
		return
	}
	tmpl, ok := p.r.deps.Components.Load(p.ctx, name)
	if !ok {
		p.fail(b, path, qserrors.IssueKindLookup, "component not found: "+name)
		return
	}

	data, _ := placeholder.SubstituteSystem(node[structure.KeyData], p.r.system).(map[string]any)
	tmpl = placeholder.Substitute(tmpl, data)
	tmpl = placeholder.SubstituteSystem(tmpl, p.r.system)

	slots, _ := node[structure.KeySlots].(map[string]any)
	f := &frame{
		name:       name,
		invocation: path,
		slots:      slots,
		outer:      sc,
	}
	p.stack = append(p.stack, f)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	p.logger.Debug(p.ctx, "Rendering component",
		"component", name, "path", path.String(), "depth", len(p.stack))

	top := scope{frame: f, top: true}
	switch t := tmpl.(type) {
	case []any:
		for i, item := range t {
			p.renderNode(b, item, nodepath.Path{nodepath.Index(i)}, top)
		}
	case map[string]any:
		p.renderNode(b, t, nodepath.Path{}, top)
	default:
		p.fail(b, path, qserrors.IssueKindStructural, "invalid component template: "+name)
	}
}
