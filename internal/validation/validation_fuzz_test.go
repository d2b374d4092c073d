package validation

import (
	"strings"
	"testing"
)

// FuzzNormalize checks that no input ever comes out with an executable
// scheme.
func FuzzNormalize(f *testing.F) {
	f.Add("javascript:alert('xss')")
	f.Add("JaVaScRiPt:alert(1)")
	f.Add("\x00javascript:alert(1)")
	f.Add(" \njavascript:alert(1)")
	f.Add("data:text/html,<script>alert('xss')</script>")
	f.Add("vbscript:msgbox(1)")
	f.Add("/about")
	f.Add("https://example.com")
	f.Add("#top")
	f.Add("")

	n := URLNormalizer{BaseURL: "/", Lang: "en", Multilingual: true, Languages: []string{"en", "de"}}

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 4096 {
			t.Skip("URL too long")
		}

		out, blocked := n.Normalize(raw)
		if blocked && out != SafeURL {
			t.Errorf("blocked URL %q rendered as %q", raw, out)
		}
		if HasBlockedScheme(out) {
			t.Errorf("Normalize(%q) = %q keeps a blocked scheme", raw, out)
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "javascript:") {
			t.Errorf("Normalize(%q) = %q", raw, out)
		}
	})
}
