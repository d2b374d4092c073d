package services

import (
	"context"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/conneroisu/quicksite/internal/config"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/renderer"
)

// RenderService builds a renderer per request from the project files and
// the configuration, and renders structures with it.
type RenderService struct {
	config  *config.Config
	project *project.Project
	logger  logging.Logger
}

// NewRenderService creates a render service.
func NewRenderService(cfg *config.Config, proj *project.Project, logger logging.Logger) *RenderService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RenderService{config: cfg, project: proj, logger: logger}
}

// Project returns the project being rendered.
func (s *RenderService) Project() *project.Project {
	return s.project
}

// Config returns the active configuration.
func (s *RenderService) Config() *config.Config {
	return s.config
}

// RenderRequest carries the per-request render context.
type RenderRequest struct {
	Lang   string
	Page   string
	ID     string
	Params []string
	Flags  map[string]bool
	// Editor overrides render.editor_mode when set.
	Editor *bool
}

// Output is the result of one render.
type Output struct {
	HTML     string
	RenderID string
	Issues   []qserrors.Issue
	// Overlay is the editor issue panel, empty outside editor mode.
	Overlay string
}

func (s *RenderService) editorMode(req RenderRequest) bool {
	if req.Editor != nil {
		return *req.Editor
	}
	return s.config.Render.EditorMode
}

// Lang resolves the request language against the site configuration.
func (s *RenderService) Lang(lang string) string {
	site := s.config.Site
	if lang == "" {
		return site.DefaultLang
	}
	if site.Multilingual {
		for _, l := range site.Languages {
			if strings.EqualFold(l, lang) {
				return l
			}
		}
		return site.DefaultLang
	}
	return lang
}

// NewRenderer builds a renderer for req. Components are read fresh for
// every renderer.
func (s *RenderService) NewRenderer(ctx context.Context, req RenderRequest) (*renderer.Renderer, error) {
	lang := s.Lang(req.Lang)

	functions, err := s.project.FunctionSet(ctx)
	if err != nil {
		return nil, err
	}
	translator, err := s.project.Translations().Translator(lang, s.config.Site.FallbackLang)
	if err != nil {
		return nil, err
	}

	opts := renderer.Options{
		EditorMode:        s.editorMode(req),
		MaxComponentDepth: s.config.Render.MaxComponentDepth,
		Multilingual:      s.config.Site.Multilingual,
		Languages:         s.config.Site.Languages,
		AllowedTags:       s.config.Render.AllowedTags,
		Context: renderer.Context{
			Lang:    lang,
			Page:    req.Page,
			ID:      req.ID,
			Params:  req.Params,
			BaseURL: s.config.Site.BaseURL,
			Flags:   req.Flags,
		},
	}
	return renderer.New(opts, renderer.Dependencies{
		Translator: translator,
		Components: s.project.Components(s.logger),
		Functions:  functions,
		Logger:     s.logger,
	}), nil
}

func (s *RenderService) output(r *renderer.Renderer, html string, editor bool) *Output {
	out := &Output{
		HTML:     s.Minify(html),
		RenderID: r.RenderID(),
		Issues:   r.Issues().Issues(),
	}
	if editor {
		out.Overlay = r.Issues().Overlay()
	}
	return out
}

// RenderRef renders one stored structure.
func (s *RenderService) RenderRef(ctx context.Context, ref project.Ref, req RenderRequest) (*Output, error) {
	if req.Page == "" && ref.Kind == project.RefPage {
		req.Page = ref.Name
	}
	r, err := s.NewRenderer(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := s.project.LoadRaw(ref)
	if err != nil {
		return nil, err
	}
	return s.output(r, r.RenderJSON(ctx, data, ref.String()), s.editorMode(req)), nil
}

// RenderPage renders the menu, the page and the footer in one pass. The
// menu and footer are optional.
func (s *RenderService) RenderPage(ctx context.Context, name string, req RenderRequest) (*Output, error) {
	page := project.Page(name)
	if !s.project.Exists(page) {
		return nil, qserrors.ErrStructureNotFound(page.String())
	}
	if req.Page == "" {
		req.Page = name
	}
	r, err := s.NewRenderer(ctx, req)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, ref := range []project.Ref{{Kind: project.RefMenu}, page, {Kind: project.RefFooter}} {
		if ref.Kind != project.RefPage && !s.project.Exists(ref) {
			continue
		}
		data, err := s.project.LoadRaw(ref)
		if err != nil {
			return nil, err
		}
		b.WriteString(r.RenderJSON(ctx, data, ref.String()))
	}
	return s.output(r, b.String(), s.editorMode(req)), nil
}

// RenderNode renders the node at path inside a stored structure.
func (s *RenderService) RenderNode(ctx context.Context, ref project.Ref, path string, req RenderRequest) (*Output, error) {
	r, err := s.NewRenderer(ctx, req)
	if err != nil {
		return nil, err
	}
	st, err := s.project.Load(ref)
	if err != nil {
		return nil, err
	}
	html, err := r.RenderNodeAtPath(ctx, st, path, ref.String())
	if err != nil {
		return nil, err
	}
	return s.output(r, html, s.editorMode(req)), nil
}

// Preview renders a component in isolation with sample data. A nil sample
// is generated from the template placeholders.
func (s *RenderService) Preview(ctx context.Context, name string, sample map[string]any, req RenderRequest) (*Output, error) {
	r, err := s.NewRenderer(ctx, req)
	if err != nil {
		return nil, err
	}
	html, err := r.RenderComponentPreview(ctx, name, sample)
	if err != nil {
		return nil, err
	}
	return s.output(r, html, s.editorMode(req)), nil
}

var (
	minifier *minify.M
	once     sync.Once
)

func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepComments:        true,
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			KeepDefaultAttrVals: true,
		})
	})
	return minifier
}

// Minify compacts rendered HTML when render.minify is on. Placeholder
// comments survive so degraded nodes stay visible.
func (s *RenderService) Minify(content string) string {
	if !s.config.Render.Minify || !strings.Contains(content, "<") {
		return content
	}
	minified, err := getMinifier().String("text/html", content)
	if err != nil {
		s.logger.Warn(context.Background(), err, "HTML minification failed")
		return content
	}
	return minified
}
