package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quicksite/internal/config"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/testutils"
)

func defaultConfig(root string) *config.Config {
	return testutils.CreateTestConfig(root)
}

func newRenderService(t *testing.T, mutate func(*config.Config)) (*RenderService, string) {
	t.Helper()
	proj := testutils.OpenTestProject(t)
	cfg := defaultConfig(proj.Root())
	if mutate != nil {
		mutate(cfg)
	}
	return NewRenderService(cfg, proj, nil), proj.Root()
}

func TestRenderService_Lang(t *testing.T) {
	svc, _ := newRenderService(t, func(c *config.Config) {
		c.Site.Multilingual = true
		c.Site.Languages = []string{"en", "fr"}
	})
	assert.Equal(t, "en", svc.Lang(""))
	assert.Equal(t, "fr", svc.Lang("FR"))
	assert.Equal(t, "en", svc.Lang("de"))

	mono, _ := newRenderService(t, nil)
	assert.Equal(t, "de", mono.Lang("de"))
}

func TestRenderService_RenderRef(t *testing.T) {
	svc, root := newRenderService(t, nil)
	testutils.WritePage(t, root, "about", `[{"tag":"p","children":[{"textKey":"about.text"}]},{"tag":"span","children":[{"textKey":"__RAW__{{__current_page}}"}]}]`)
	testutils.WriteCatalog(t, root, "en", map[string]any{"about": map[string]any{"text": "About us"}})

	out, err := svc.RenderRef(context.Background(), project.Page("about"), RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<p>About us</p><span>about</span>`, out.HTML)
	assert.Len(t, out.RenderID, 26)
	assert.Empty(t, out.Overlay)

	_, err = svc.RenderRef(context.Background(), project.Page("missing"), RenderRequest{})
	assert.True(t, qserrors.IsNotFound(err))
}

func TestRenderService_RenderPage(t *testing.T) {
	svc, root := newRenderService(t, nil)
	testutils.WriteStructure(t, root, "menu", `[{"tag":"nav"}]`)
	testutils.WritePage(t, root, "home", `[{"tag":"main"}]`)

	out, err := svc.RenderPage(context.Background(), "home", RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<nav></nav><main></main>`, out.HTML)

	testutils.WriteStructure(t, root, "footer", `[{"tag":"footer"}]`)
	out, err = svc.RenderPage(context.Background(), "home", RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<nav></nav><main></main><footer></footer>`, out.HTML)

	_, err = svc.RenderPage(context.Background(), "nope", RenderRequest{})
	assert.True(t, qserrors.IsNotFound(err))
}

func TestRenderService_EditorOverride(t *testing.T) {
	svc, root := newRenderService(t, nil)
	testutils.WritePage(t, root, "home", `[{"tag":"p"},{"tag":"script"}]`)

	editor := true
	out, err := svc.RenderRef(context.Background(), project.Page("home"), RenderRequest{Editor: &editor})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, `<p data-qs-struct="page:home" data-qs-node="0"></p>`)
	assert.Contains(t, out.HTML, `<!-- qs: blocked tag: script -->`)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Overlay, "qs-issue-overlay")
}

func TestRenderService_RenderNode(t *testing.T) {
	svc, root := newRenderService(t, nil)
	testutils.WritePage(t, root, "home", `[{"tag":"ul","children":[{"tag":"li","children":[{"textKey":"__RAW__one"}]},{"tag":"li","children":[{"textKey":"__RAW__two"}]}]}]`)

	out, err := svc.RenderNode(context.Background(), project.Page("home"), "0.1", RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<li>two</li>`, out.HTML)

	_, err = svc.RenderNode(context.Background(), project.Page("home"), "0.9", RenderRequest{})
	assert.Equal(t, qserrors.ErrCodeNodeNotFound, qserrors.CodeOf(err))

	_, err = svc.RenderNode(context.Background(), project.Page("home"), "0..1", RenderRequest{})
	assert.Equal(t, qserrors.ErrCodeInvalidPath, qserrors.CodeOf(err))
}

func TestRenderService_Preview(t *testing.T) {
	svc, root := newRenderService(t, nil)
	testutils.CreateTestComponent(t, root, "badge", `{"tag":"span","params":{"class":"badge"},"children":[{"textKey":"{{label}}"}]}`)

	out, err := svc.Preview(context.Background(), "badge", map[string]any{"label": "__RAW__New"}, RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<span class="badge">New</span>`, out.HTML)

	out, err = svc.Preview(context.Background(), "badge", nil, RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, `<span class="badge">Sample Label</span>`, out.HTML)

	_, err = svc.Preview(context.Background(), "ghost", nil, RenderRequest{})
	assert.Equal(t, qserrors.ErrCodeComponentNotFound, qserrors.CodeOf(err))
}

func TestRenderService_Multilingual(t *testing.T) {
	svc, root := newRenderService(t, func(c *config.Config) {
		c.Site.Multilingual = true
		c.Site.Languages = []string{"en", "fr"}
		c.Site.FallbackLang = "en"
	})
	testutils.WritePage(t, root, "home", `[{"tag":"a","params":{"href":"/contact"},"children":[{"textKey":"menu.contact"}]},{"tag":"p","children":[{"textKey":"only.english"}]}]`)
	testutils.WriteCatalog(t, root, "en", map[string]any{"menu.contact": "Contact", "only.english": "English"})
	testutils.WriteCatalog(t, root, "fr", map[string]any{"menu.contact": "Contactez-nous"})

	out, err := svc.RenderRef(context.Background(), project.Page("home"), RenderRequest{Lang: "fr"})
	require.NoError(t, err)
	assert.Equal(t, `<a href="/fr/contact">Contactez-nous</a><p>English</p>`, out.HTML)
}

func TestRenderService_Minify(t *testing.T) {
	svc, root := newRenderService(t, func(c *config.Config) {
		c.Render.Minify = true
	})
	testutils.WritePage(t, root, "home", `[{"tag":"p","params":{"class":"a"},"children":[{"textKey":"__RAW__  spaced   out  "}]},{"tag":"script"}]`)

	out, err := svc.RenderRef(context.Background(), project.Page("home"), RenderRequest{})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, `<p class="a">spaced out</p>`)
	assert.Contains(t, out.HTML, `qs: blocked tag: script`)

	plain, _ := newRenderService(t, nil)
	assert.Equal(t, "<p> x </p>", plain.Minify("<p> x </p>"))
}
