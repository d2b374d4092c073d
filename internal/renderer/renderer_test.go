package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/quicksite/internal/callsyntax"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/i18n"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// mapSource serves component templates from JSON strings.
type mapSource map[string]string

func (m mapSource) Load(_ context.Context, name string) (any, bool) {
	body, ok := m[name]
	if !ok {
		return nil, false
	}
	v, err := structure.Decode([]byte(body))
	if err != nil {
		return nil, false
	}
	return v, true
}

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := structure.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func render(t *testing.T, opts Options, deps Dependencies, s string) string {
	t.Helper()
	return New(opts, deps).RenderStructure(context.Background(), decode(t, s), "page:home")
}

// firstElement parses out and returns the attributes of the first element.
func firstElement(t *testing.T, out string) map[string]string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data != "html" && n.Data != "head" && n.Data != "body" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, found, "no element in %q", out)

	attrs := map[string]string{}
	for _, a := range found.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}

func TestRenderStructure_RawText(t *testing.T) {
	out := render(t, Options{}, Dependencies{}, `[{"tag":"div","children":[{"textKey":"__RAW__Hello"}]}]`)
	assert.Equal(t, "<div>Hello</div>", out)
}

func TestRenderStructure_ObjectRoot(t *testing.T) {
	out := render(t, Options{}, Dependencies{}, `{"tag":"ul","children":[{"tag":"li"},{"tag":"li"}]}`)
	assert.Equal(t, "<ul><li></li><li></li></ul>", out)
}

func TestRenderStructure_EscapesText(t *testing.T) {
	out := render(t, Options{}, Dependencies{}, `[{"tag":"p","children":[{"textKey":"__RAW__<b>&</b>"}]}]`)
	assert.Equal(t, "<p>&lt;b&gt;&amp;&lt;/b&gt;</p>", out)
}

func TestRenderStructure_DeniedTags(t *testing.T) {
	for _, tag := range validation.DeniedTags() {
		for _, editor := range []bool{false, true} {
			t.Run(tag, func(t *testing.T) {
				r := New(Options{EditorMode: editor, AllowedTags: []string{tag}}, Dependencies{})
				s := []any{map[string]any{
					"tag":      strings.ToUpper(tag),
					"params":   map[string]any{"id": "x"},
					"children": []any{map[string]any{"textKey": "__RAW__alert(1)"}},
				}}
				out := r.RenderStructure(context.Background(), s, "page:home")

				assert.Equal(t, Comment("blocked tag: "+tag), out)
				assert.NotContains(t, strings.ToLower(out), "<"+tag)
				assert.Equal(t, 1, r.Issues().Count(qserrors.IssueKindSecurity))
			})
		}
	}
}

func TestRenderStructure_SVGAnimation(t *testing.T) {
	in := `[{"tag":"svg","children":[{"tag":"a","children":[
		{"tag":"animate","params":{"attributeName":"href","values":"javascript:alert(1)"}},
		{"tag":"set","params":{"attributeName":"href","to":"javascript:alert(1)"}},
		{"tag":"animateTransform","params":{"attributeName":"href","from":"javascript:alert(1)"}},
		{"tag":"text","params":{"y":"20"},"children":[{"textKey":"__RAW__click"}]}
	]}]}]`
	out := render(t, Options{}, Dependencies{}, in)

	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<animate")
	assert.NotContains(t, out, "<set")
	assert.Contains(t, out, Comment("blocked tag: animate"))
	assert.Contains(t, out, Comment("blocked tag: set"))
	assert.Contains(t, out, `<text y="20">click</text>`)
}

func TestRenderStructure_InvalidNodes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"scalar", `[42]`, Comment("invalid node")},
		{"two discriminators", `[{"tag":"div","textKey":"x"}]`, Comment("invalid node")},
		{"no discriminator", `[{"params":{}}]`, Comment("invalid node")},
		{"bad tag name", `[{"tag":"di v"}]`, Comment("invalid tag name")},
		{"tag injection", `[{"tag":"img src=x onerror=alert(1)"}]`, Comment("invalid tag name")},
		{"empty tag", `[{"tag":""}]`, Comment("invalid tag name")},
		{"bad sibling only", `[{"tag":"p"},7,{"tag":"br"}]`, "<p></p>" + Comment("invalid node") + "<br>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, Options{}, Dependencies{}, tt.in))
		})
	}
}

func TestRenderStructure_AllowList(t *testing.T) {
	opts := Options{AllowedTags: []string{"div", "P"}}
	out := render(t, opts, Dependencies{}, `[{"tag":"div","children":[{"tag":"p"},{"tag":"span"}]}]`)
	assert.Equal(t, "<div><p></p>"+Comment("tag not allowed: span")+"</div>", out)
}

func TestRenderStructure_VoidElements(t *testing.T) {
	opts := Options{Context: Context{BaseURL: "https://site.test"}}
	out := render(t, opts, Dependencies{}, `[
		{"tag":"img","params":{"src":"assets/a.png","alt":"Logo"},"children":[{"textKey":"__RAW__ignored"}]},
		{"tag":"br"}
	]`)
	assert.Equal(t, `<img alt="Logo" src="https://site.test/assets/a.png"><br>`, out)
}

func TestAttributes(t *testing.T) {
	deps := Dependencies{
		Functions: callsyntax.MustCoreSet(),
		Translator: &i18n.MapTranslator{Primary: i18n.Catalog{
			"form": map[string]any{"email": "Courriel"},
		}},
	}
	opts := Options{Context: Context{Flags: map[string]bool{"isAdmin": true}}}

	tests := []struct {
		name   string
		params string
		want   map[string]string
	}{
		{"sorted plain", `{"id":"x","class":"a b"}`, map[string]string{"class": "a b", "id": "x"}},
		{"bool true", `{"disabled":true}`, map[string]string{"disabled": ""}},
		{"bool false", `{"disabled":false}`, map[string]string{}},
		{"null and empty", `{"title":null,"class":""}`, map[string]string{}},
		{"number", `{"tabindex":3}`, map[string]string{"tabindex": "3"}},
		{"invalid name", `{"on click":"x","a\"b":"y"}`, map[string]string{}},
		{"srcdoc", `{"srcdoc":"<script>alert(1)</script>"}`, map[string]string{}},
		{"reserved editor attribute", `{"data-qs-node":"9"}`, map[string]string{}},
		{"data attribute", `{"data-id":"7"}`, map[string]string{"data-id": "7"}},
		{"conditional on", `{"class":{"condition":"isAdmin","value":"admin"}}`, map[string]string{"class": "admin"}},
		{"conditional off", `{"class":{"condition":"isGuest","value":"guest"}}`, map[string]string{}},
		{"conditional malformed", `{"class":{"value":"x"}}`, map[string]string{}},
		{"array value", `{"class":["a","b"]}`, map[string]string{}},
		{"translated", `{"placeholder":"form.email"}`, map[string]string{"placeholder": "Courriel"}},
		{"raw bypasses translation", `{"placeholder":"__RAW__form.email"}`, map[string]string{"placeholder": "form.email"}},
		{"not a key", `{"title":"Hello world"}`, map[string]string{"title": "Hello world"}},
		{"untranslated key", `{"alt":"img.missing"}`, map[string]string{"alt": "img.missing"}},
		{"non translatable", `{"class":"form.email"}`, map[string]string{"class": "form.email"}},
		{"escaped", `{"title":"\"><script>"}`, map[string]string{"title": `"><script>`}},
		{"call syntax", `{"onclick":"{{call:hide:#modal}}"}`, map[string]string{"onclick": "QS.hide('#modal')"}},
		{"raw handler", `{"onclick":"alert(1)"}`, map[string]string{}},
		{"handler not whitelisted", `{"onclick":"{{call:evil:x}}"}`, map[string]string{}},
		{"handler hidden behind comment", `{"onclick":"/* QS.hide(' */ alert(document.cookie); /* ') */{{call:hide:#x}}"}`, map[string]string{}},
		{"handler smuggled", `{"onmouseover":"{{call:hide:#a}};alert(1)"}`, map[string]string{}},
		{"handler bool", `{"onclick":true}`, map[string]string{}},
		{"safe style", `{"style":"color: red"}`, map[string]string{"style": "color: red"}},
		{"unsafe style", `{"style":"background:url(javascript:alert(1))"}`, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, opts, deps, `[{"tag":"div","params":`+tt.params+`}]`)
			assert.Equal(t, tt.want, firstElement(t, out))
		})
	}
}

func TestAttributes_URLs(t *testing.T) {
	opts := Options{
		Multilingual: true,
		Languages:    []string{"en", "fr"},
		Context: Context{
			Lang:    "fr",
			Page:    "blog",
			ID:      "42",
			BaseURL: "/",
		},
	}

	tests := []struct {
		name string
		href string
		want string
	}{
		{"javascript", "javascript:alert(1)", "#"},
		{"mixed case javascript", " JaVaScRiPt:alert(1)", "#"},
		{"data", "data:text/html,<script>alert(1)</script>", "#"},
		{"vbscript", "vbscript:msgbox", "#"},
		{"fragment", "#top", "#top"},
		{"mailto", "mailto:a@b.test", "mailto:a@b.test"},
		{"absolute", "https://x.test/a", "https://x.test/a"},
		{"protocol relative", "//cdn.test/a.js", "//cdn.test/a.js"},
		{"page", "/about", "/fr/about"},
		{"asset", "assets/logo.png", "/assets/logo.png"},
		{"already prefixed", "/en/about", "/en/about"},
		{"language switch", "{{__current_page;lang=en}}", "/en/blog/42"},
		{"raw", "__RAW__/about", "/fr/about"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(opts, Dependencies{})
			s := []any{map[string]any{"tag": "a", "params": map[string]any{"href": tt.href}}}
			out := r.RenderStructure(context.Background(), s, "menu")
			assert.Equal(t, tt.want, firstElement(t, out)["href"])
			assert.NotContains(t, strings.ToLower(out), "javascript:")
		})
	}
}

func TestRenderStructure_TextNodes(t *testing.T) {
	deps := Dependencies{Translator: &i18n.MapTranslator{Primary: i18n.Catalog{
		"nav": map[string]any{"home": "Accueil <3"},
	}}}
	s := `[{"tag":"p","children":[{"textKey":"nav.home"},{"textKey":"{{title}}"},{"textKey":"__RAW__{{__lang}}"}]}]`
	opts := Options{Context: Context{Lang: "fr"}}

	out := render(t, opts, deps, s)
	assert.Equal(t, "<p>Accueil &lt;3{{title}}fr</p>", out)

	opts.EditorMode = true
	out = render(t, opts, deps, s)
	assert.Equal(t, `<p data-qs-struct="page:home" data-qs-node="0">`+
		`<span data-qs-textkey="nav.home">Accueil &lt;3</span>`+
		`<span data-qs-placeholder="title">{{title}}</span>`+
		`fr</p>`, out)
}

func TestRenderStructure_NilTranslatorEchoesKey(t *testing.T) {
	out := render(t, Options{}, Dependencies{}, `[{"tag":"h1","children":[{"textKey":"home.title"}]}]`)
	assert.Equal(t, "<h1>home.title</h1>", out)
}

func TestRenderStructure_EditorPaths(t *testing.T) {
	s := `[{"tag":"main","children":[{"tag":"section","children":[{"tag":"p"}]}]},{"tag":"footer"}]`

	out := render(t, Options{}, Dependencies{}, s)
	assert.NotContains(t, out, "data-qs-")

	out = render(t, Options{EditorMode: true}, Dependencies{}, s)
	assert.Equal(t,
		`<main data-qs-struct="page:home" data-qs-node="0">`+
			`<section data-qs-struct="page:home" data-qs-node="0.0">`+
			`<p data-qs-struct="page:home" data-qs-node="0.0.0"></p>`+
			`</section></main>`+
			`<footer data-qs-struct="page:home" data-qs-node="1"></footer>`, out)
}

func TestRenderStructure_NestedComponents(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"a": `{"tag":"section","children":[
			{"tag":"h2","children":[{"textKey":"__RAW__{{title}}"}]},
			{"component":"b","data":{"label":"{{title}}"}}
		]}`,
		"b": `{"tag":"span","children":[{"textKey":"__RAW__{{label}}"}]}`,
	}}
	s := `[{"component":"a","data":{"title":"Hi"}}]`

	out := render(t, Options{}, deps, s)
	assert.Equal(t, "<section><h2>Hi</h2><span>Hi</span></section>", out)

	out = render(t, Options{EditorMode: true}, deps, s)
	assert.Equal(t,
		`<section data-qs-struct="page:home" data-qs-node="" data-qs-component="a" data-qs-component-node="0">`+
			`<h2 data-qs-struct="page:home" data-qs-node="0" data-qs-in-component="true">Hi</h2>`+
			`<span data-qs-struct="page:home" data-qs-node="" data-qs-component="b" data-qs-component-node="1" data-qs-in-component="true">Hi</span>`+
			`</section>`, out)

	assert.Equal(t, 1, strings.Count(out, `data-qs-component="a"`))
	assert.Equal(t, 1, strings.Count(out, `data-qs-component="b"`))
	assert.Equal(t, 2, strings.Count(out, `data-qs-in-component="true"`))
}

func TestRenderStructure_ComponentArrayTemplate(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"pair": `[{"tag":"dt","children":[{"textKey":"__RAW__{{k}}"}]},{"tag":"dd","children":[{"textKey":"__RAW__{{v}}"}]}]`,
	}}
	out := render(t, Options{EditorMode: true}, deps, `[{"tag":"dl","children":[{"component":"pair","data":{"k":"a","v":1}}]}]`)
	assert.Equal(t,
		`<dl data-qs-struct="page:home" data-qs-node="0">`+
			`<dt data-qs-struct="page:home" data-qs-node="0" data-qs-component="pair" data-qs-component-node="0.0">a</dt>`+
			`<dd data-qs-struct="page:home" data-qs-node="1" data-qs-component="pair" data-qs-component-node="0.0">1</dd>`+
			`</dl>`, out)
}

func TestRenderStructure_ComponentFailures(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"loop":   `{"tag":"div","children":[{"component":"loop"}]}`,
		"scalar": `"just a string"`,
	}}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing", `[{"component":"nope"}]`, Comment("component not found: nope")},
		{"invalid name", `[{"component":"../etc/passwd"}]`, Comment("invalid component name")},
		{"scalar template", `[{"component":"scalar"}]`, Comment("component not found: scalar")},
		{
			"depth guard",
			`[{"component":"loop"}]`,
			"<div><div><div>" + Comment("component depth exceeded: loop") + "</div></div></div>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, Options{MaxComponentDepth: 3}, deps, tt.in)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("no source", func(t *testing.T) {
		out := render(t, Options{}, Dependencies{}, `[{"component":"card"}]`)
		assert.Equal(t, Comment("component not found: card"), out)
	})

	t.Run("default depth", func(t *testing.T) {
		out := render(t, Options{}, deps, `[{"component":"loop"}]`)
		assert.Equal(t, DefaultMaxComponentDepth, strings.Count(out, "<div>"))
		assert.Contains(t, out, "component depth exceeded")
	})
}

func TestRenderStructure_Slots(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"card": `{"tag":"article","children":[
			{"tag":"header","slot":"head","children":[{"textKey":"__RAW__Default"}]},
			{"tag":"div","slot":"body"}
		]}`,
	}}
	s := `[{"component":"card","slots":{"body":[{"tag":"p","children":[{"textKey":"__RAW__Body"}]}]}}]`

	out := render(t, Options{}, deps, s)
	assert.Equal(t, "<article><header>Default</header><div><p>Body</p></div></article>", out)

	out = render(t, Options{EditorMode: true}, deps, s)
	assert.Contains(t, out, `<p data-qs-struct="page:home" data-qs-node="0.slots.body.0">Body</p>`)
	assert.NotContains(t, out, `data-qs-node="0.slots.body.0" data-qs-in-component`)
	assert.Contains(t, out, `<header data-qs-struct="page:home" data-qs-node="0" data-qs-in-component="true">`)
}

func TestRenderStructure_SystemPlaceholdersInComponentData(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"switch": `{"tag":"a","params":{"href":"{{target}}","lang":"{{__lang}}"}}`,
	}}
	opts := Options{Context: Context{Lang: "en", Page: "about"}}
	out := render(t, opts, deps, `[{"component":"switch","data":{"target":"{{__current_page;lang=de}}"}}]`)
	attrs := firstElement(t, out)
	assert.Equal(t, "/de/about", attrs["href"])
	assert.Equal(t, "en", attrs["lang"])
}

func TestRenderJSON(t *testing.T) {
	r := New(Options{}, Dependencies{})
	assert.Equal(t, "<hr>", r.RenderJSON(context.Background(), []byte(`[{"tag":"hr"}]`), "footer"))
	assert.Equal(t, Comment("invalid JSON"), r.RenderJSON(context.Background(), []byte(`[{"tag":`), "footer"))
	assert.Equal(t, Comment("invalid JSON"), r.RenderJSON(context.Background(), []byte(`"text"`), "footer"))
}

func TestRenderNodeAtPath(t *testing.T) {
	s := decode(t, `[{"tag":"div","children":[{"tag":"p","children":[{"textKey":"__RAW__x"}]}]}]`)
	r := New(Options{EditorMode: true}, Dependencies{})
	ctx := context.Background()

	out, err := r.RenderNodeAtPath(ctx, s, "0.0", "page:home")
	require.NoError(t, err)
	assert.Equal(t, `<p data-qs-struct="page:home" data-qs-node="0.0">x</p>`, out)

	out, err = r.RenderNodeAtPath(ctx, s, "", "page:home")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<div data-qs-struct="page:home" data-qs-node="0">`))

	_, err = r.RenderNodeAtPath(ctx, s, "0.9", "page:home")
	assert.Equal(t, qserrors.ErrCodeNodeNotFound, qserrors.CodeOf(err))

	_, err = r.RenderNodeAtPath(ctx, s, "0..1", "page:home")
	assert.Equal(t, qserrors.ErrCodeInvalidPath, qserrors.CodeOf(err))
}

func TestRenderNodeAtPath_SlotContent(t *testing.T) {
	deps := Dependencies{Components: mapSource{"card": `{"tag":"div","slot":"body"}`}}
	s := decode(t, `[{"component":"card","slots":{"body":[{"tag":"em"},{"tag":"strong"}]}}]`)

	out, err := New(Options{EditorMode: true}, deps).RenderNodeAtPath(context.Background(), s, "0.slots.body.1", "page:home")
	require.NoError(t, err)
	assert.Equal(t, `<strong data-qs-struct="page:home" data-qs-node="0.slots.body.1"></strong>`, out)
}

func TestRenderComponentPreview(t *testing.T) {
	deps := Dependencies{Components: mapSource{
		"card": `{"tag":"div","params":{"class":"card {{variant}}"},"children":[
			{"tag":"h2","children":[{"textKey":"{{title}}"}]},
			{"tag":"a","params":{"href":"{{url}}"}}
		]}`,
	}}
	r := New(Options{}, deps)
	ctx := context.Background()

	out, err := r.RenderComponentPreview(ctx, "card", nil)
	require.NoError(t, err)
	assert.Equal(t, `<div class="card primary"><h2>Sample Title</h2><a href="https://example.com"></a></div>`, out)

	out, err = r.RenderComponentPreview(ctx, "card", map[string]any{"title": "__RAW__Hello", "variant": "x", "url": "/x"})
	require.NoError(t, err)
	assert.Equal(t, `<div class="card x"><h2>Hello</h2><a href="/x"></a></div>`, out)

	editor := New(Options{EditorMode: true}, deps)
	out, err = editor.RenderComponentPreview(ctx, "card", nil)
	require.NoError(t, err)
	assert.Contains(t, out, `data-qs-struct="component:card"`)

	_, err = r.RenderComponentPreview(ctx, "missing", nil)
	assert.Equal(t, qserrors.ErrCodeComponentNotFound, qserrors.CodeOf(err))

	_, err = r.RenderComponentPreview(ctx, "../card", nil)
	assert.Equal(t, qserrors.ErrCodeInvalidName, qserrors.CodeOf(err))
}

func TestMockString(t *testing.T) {
	tests := map[string]string{
		"title":      "Sample Title",
		"Heading":    "Sample Title",
		"username":   "John Doe",
		"email":      "john@example.com",
		"href":       "https://example.com",
		"kind":       "primary",
		"size":       "medium",
		"hero_image": "Sample Hero Image",
		"cta-label":  "Sample Cta Label",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, MockString(name))
		})
	}
}

func TestMockData(t *testing.T) {
	tmpl := decode(t, `{"tag":"div","params":{"title":"{{title}}"},"children":[
		{"textKey":"{{title}}"},
		{"textKey":"Hi {{name}}"},
		{"textKey":"{{__lang}}"}
	]}`)
	assert.Equal(t, map[string]any{
		"title": RawPrefix + "Sample Title",
		"name":  "John Doe",
	}, MockData(tmpl))
}

func TestRenderStructure_WellFormed(t *testing.T) {
	deps := Dependencies{
		Functions: callsyntax.MustCoreSet(),
		Components: mapSource{
			"card": `{"tag":"div","params":{"class":"card"},"children":[{"tag":"h3","slot":"title"},{"tag":"img","params":{"src":"{{img}}","alt":"{{alt}}"}}]}`,
		},
	}
	s := `[
		{"tag":"nav","children":[
			{"tag":"a","params":{"href":"javascript:alert(1)","onclick":"{{call:toggle:#menu,event}}"},"children":[{"textKey":"__RAW__<menu>"}]},
			{"tag":"script","children":[{"textKey":"__RAW__alert(1)"}]}
		]},
		{"component":"card","data":{"img":"x.png","alt":"\"><script>alert(1)</script>"},"slots":{"title":[{"textKey":"__RAW__--><script>"}]}},
		{"tag":"iframe","params":{"srcdoc":"<script>alert(1)</script>","onload":"alert(1)"}}
	]`

	for _, editor := range []bool{false, true} {
		out := render(t, Options{EditorMode: editor}, deps, s)

		doc, err := html.Parse(strings.NewReader(out))
		require.NoError(t, err)

		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode {
				assert.NotEqual(t, "script", n.Data)
				for _, a := range n.Attr {
					assert.NotEqual(t, "srcdoc", a.Key)
					assert.NotContains(t, strings.ToLower(a.Val), "javascript:")
					if strings.HasPrefix(a.Key, "on") {
						assert.True(t, strings.HasPrefix(a.Val, "QS."), "handler %s=%q", a.Key, a.Val)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}
}

func TestComment(t *testing.T) {
	assert.Equal(t, "<!-- qs: bad -->", Comment("bad"))
	assert.Equal(t, "<!-- qs: x <script -->", Comment("x --><script>"))
}

func TestRenderer_IssuesAndRenderID(t *testing.T) {
	r := New(Options{}, Dependencies{})
	assert.Len(t, r.RenderID(), 26)

	r.RenderStructure(context.Background(), decode(t, `[{"tag":"script"},{"component":"nope"},{"tag":"a","params":{"href":"javascript:x"}}]`), "page:home")

	issues := r.Issues()
	assert.Equal(t, 2, issues.Count(qserrors.IssueKindSecurity))
	assert.Equal(t, 1, issues.Count(qserrors.IssueKindLookup))
	for _, issue := range issues.Issues() {
		assert.Equal(t, "page:home", issue.Structure)
	}
}
