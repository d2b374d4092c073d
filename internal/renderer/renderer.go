// Package renderer turns JSON node structures into HTML fragments.
//
// A structure is untrusted, user-editable content, so every node passes a
// sandbox on the way out: denied tags become comments, attribute names are
// checked, on* handlers are only emitted when they reduce to whitelisted
// {{call:...}} expressions, and URL attributes lose dangerous schemes.
// Nothing a structure contains can make a render fail: a bad subtree is
// replaced by a short HTML comment, recorded as an Issue and logged.
//
// A Renderer is built for one render pass (usually one HTTP request). Its
// component source caches templates for its lifetime, so it must not be kept
// around while component files change.
package renderer

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/callsyntax"
	"github.com/conneroisu/quicksite/internal/i18n"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/placeholder"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// DefaultMaxComponentDepth bounds component nesting.
const DefaultMaxComponentDepth = 32

// RawPrefix marks literal text that bypasses translation.
const RawPrefix = "__RAW__"

// Context is the per-request render context.
type Context struct {
	Lang    string
	Page    string
	ID      string
	Params  []string
	BaseURL string
	Flags   map[string]bool
}

// Options configure one Renderer.
type Options struct {
	// EditorMode adds data-qs-* attributes for the visual editor.
	EditorMode        bool
	MaxComponentDepth int
	Multilingual      bool
	Languages         []string
	// AllowedTags, when non-empty, is an allow list applied after the
	// built-in deny list.
	AllowedTags []string
	Context     Context
}

// ComponentSource resolves component templates by name.
type ComponentSource interface {
	Load(ctx context.Context, name string) (any, bool)
}

// Dependencies are the collaborators a Renderer consumes. Any of them may be
// nil: a nil Translator echoes keys, a nil ComponentSource finds nothing and
// a nil Functions registry blocks every call.
type Dependencies struct {
	Translator i18n.Translator
	Components ComponentSource
	Functions  callsyntax.Registry
	Logger     logging.Logger
}

// Renderer renders structures for one render pass.
type Renderer struct {
	opts        Options
	deps        Dependencies
	logger      logging.Logger
	renderID    string
	transformer *callsyntax.Transformer
	urls        validation.URLNormalizer
	system      placeholder.System
	allowed     map[string]bool
	issues      *qserrors.IssueCollector
}

// New creates a Renderer.
func New(opts Options, deps Dependencies) *Renderer {
	if opts.MaxComponentDepth <= 0 {
		opts.MaxComponentDepth = DefaultMaxComponentDepth
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	logger, id := logging.WithRenderID(deps.Logger.WithComponent("renderer"))

	var allowed map[string]bool
	if len(opts.AllowedTags) > 0 {
		allowed = make(map[string]bool, len(opts.AllowedTags))
		for _, tag := range opts.AllowedTags {
			allowed[strings.ToLower(tag)] = true
		}
	}

	c := opts.Context
	return &Renderer{
		opts:        opts,
		deps:        deps,
		logger:      logger,
		renderID:    id,
		transformer: callsyntax.NewTransformer(deps.Functions),
		urls: validation.URLNormalizer{
			BaseURL:      c.BaseURL,
			Lang:         c.Lang,
			Multilingual: opts.Multilingual,
			Languages:    opts.Languages,
		},
		system: placeholder.System{
			Lang:    c.Lang,
			Page:    c.Page,
			ID:      c.ID,
			Params:  c.Params,
			BaseURL: c.BaseURL,
		},
		allowed: allowed,
		issues:  qserrors.NewIssueCollector(),
	}
}

// RenderID identifies this render pass in logs.
func (r *Renderer) RenderID() string {
	return r.renderID
}

// Issues returns what was degraded during the pass.
func (r *Renderer) Issues() *qserrors.IssueCollector {
	return r.issues
}

// RenderStructure renders an array of root nodes or a single root node.
func (r *Renderer) RenderStructure(ctx context.Context, s any, label string) string {
	p := r.newPass(ctx, label)
	op := logging.StartOperation(p.logger, "render_structure")
	defer op.End(ctx)

	var b strings.Builder
	switch root := s.(type) {
	case []any:
		for i, node := range root {
			p.renderNode(&b, node, nodepath.Path{nodepath.Index(i)}, scope{})
		}
	case map[string]any:
		p.renderNode(&b, root, nodepath.Path{}, scope{})
	case nil:
		p.fail(&b, nodepath.Path{}, qserrors.IssueKindLookup, "empty structure")
	default:
		p.fail(&b, nodepath.Path{}, qserrors.IssueKindStructural, "structure must be an array or an object")
	}
	return b.String()
}

// RenderJSON decodes and renders a structure document. Invalid JSON renders
// as a comment placeholder.
func (r *Renderer) RenderJSON(ctx context.Context, data []byte, label string) string {
	s, err := structure.Decode(data)
	if err != nil {
		p := r.newPass(ctx, label)
		var b strings.Builder
		p.logger.Warn(ctx, err, "Invalid structure JSON")
		p.fail(&b, nodepath.Path{}, qserrors.IssueKindLookup, "invalid JSON")
		return b.String()
	}
	return r.RenderStructure(ctx, s, label)
}

// RenderNodeAtPath renders exactly one node, for incremental DOM patches.
// Path errors are returned; content errors degrade as usual.
func (r *Renderer) RenderNodeAtPath(ctx context.Context, s any, path, label string) (string, error) {
	p, err := nodepath.Parse(path)
	if err != nil {
		return "", err
	}
	node, err := structure.Get(s, path)
	if err != nil {
		return "", err
	}
	if p.IsRoot() {
		return r.RenderStructure(ctx, node, label), nil
	}

	pass := r.newPass(ctx, label)
	var b strings.Builder
	pass.renderNode(&b, node, p, scope{})
	return b.String(), nil
}

// pass is the state of one public render call.
type pass struct {
	r      *Renderer
	ctx    context.Context
	logger logging.Logger
	label  string
	stack  []*frame
}

// frame is one component instantiation on the context stack.
type frame struct {
	name       string
	invocation nodepath.Path
	slots      map[string]any
	outer      scope
}

// scope says which component, if any, a node belongs to.
type scope struct {
	frame *frame
	// top marks the root nodes of the frame's template.
	top bool
}

func (r *Renderer) newPass(ctx context.Context, label string) *pass {
	if ctx == nil {
		ctx = context.Background()
	}
	return &pass{
		r:      r,
		ctx:    ctx,
		logger: r.logger.With("structure", label),
		label:  label,
	}
}

// fail writes a comment placeholder and records the issue.
func (p *pass) fail(b *strings.Builder, path nodepath.Path, kind qserrors.IssueKind, reason string) {
	severity := qserrors.IssueSeverityWarning
	if kind == qserrors.IssueKindSecurity {
		severity = qserrors.IssueSeverityError
	}
	p.issue(path, kind, severity, reason)
	b.WriteString(Comment(reason))
}

func (p *pass) issue(path nodepath.Path, kind qserrors.IssueKind, severity qserrors.IssueSeverity, msg string) {
	p.r.issues.Add(qserrors.Issue{
		Structure: p.label,
		Path:      path.String(),
		Kind:      kind,
		Message:   msg,
		Severity:  severity,
	})
}

func (p *pass) security(path nodepath.Path, event, msg string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["structure"] = p.label
	details["path"] = path.String()
	logging.LogSecurityEvent(p.logger, p.ctx, event, details)
	p.issue(path, qserrors.IssueKindSecurity, qserrors.IssueSeverityWarning, msg)
}

// Comment formats a placeholder comment. "--" and ">" are removed from the
// reason so the comment cannot be closed early.
func Comment(reason string) string {
	reason = strings.ReplaceAll(reason, "--", "")
	reason = strings.ReplaceAll(reason, ">", "")
	return "<!-- qs: " + reason + " -->"
}

func escape(s string) string {
	return templ.EscapeString(s)
}
