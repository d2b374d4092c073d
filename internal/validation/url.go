package validation

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// SafeURL replaces a URL whose scheme is blocked.
const SafeURL = "#"

var (
	schemePattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	blockedSchemes  = []string{"javascript:", "data:", "vbscript:"}
	passThroughURLs = []string{"#", "mailto:", "tel:", "?"}

	assetPrefixes = []string{
		"assets/", "static/", "uploads/", "images/", "img/", "css/", "js/", "fonts/", "media/", "favicon",
	}
	assetExtensions = map[string]bool{
		".css": true, ".js": true, ".mjs": true, ".map": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".avif": true, ".ico": true,
		".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
		".mp4": true, ".webm": true, ".ogg": true, ".mp3": true, ".wav": true,
		".pdf": true, ".zip": true, ".json": true, ".xml": true, ".txt": true,
	}
)

// HasBlockedScheme reports whether raw would execute script or inline a
// document when used as a URL. Whitespace and control characters that
// browsers ignore are removed before the check.
func HasBlockedScheme(raw string) bool {
	lower := strings.ToLower(stripInvisible(raw))
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// URLNormalizer rewrites site-relative URLs against the project base URL and,
// in multilingual mode, the current language.
type URLNormalizer struct {
	BaseURL      string
	Lang         string
	Multilingual bool
	Languages    []string
}

// Normalize returns the URL to emit and whether the input was blocked.
//
//	javascript:alert(1)  -> "#" (blocked)
//	#top, mailto:x, tel:1 -> unchanged
//	https://x.test/, //cdn -> unchanged
//	/about               -> <base>/about, or <base>/<lang>/about when multilingual
//	assets/logo.png      -> <base>/assets/logo.png, never language-prefixed
func (n URLNormalizer) Normalize(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if HasBlockedScheme(v) {
		return SafeURL, true
	}
	if v == "" {
		return v, false
	}
	for _, prefix := range passThroughURLs {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			return v, false
		}
	}
	if schemePattern.MatchString(v) || strings.HasPrefix(v, "//") {
		return v, false
	}

	rel := trimLeadingSlashes(v)
	if n.Multilingual && n.Lang != "" && !IsAssetPath(rel) && !n.hasLanguagePrefix(rel) {
		rel = n.Lang + "/" + rel
	}

	return strings.TrimRight(n.BaseURL, "/") + "/" + rel, false
}

// trimLeadingSlashes drops the leading run of slashes. Browsers read '\' as
// '/' and skip tabs and newlines inside URLs, so `/\host` and "/<tab>/host" would
// otherwise become protocol-relative links to another site.
func trimLeadingSlashes(v string) string {
	i := 0
	for i < len(v) && (v[i] == '/' || v[i] == '\\' || v[i] <= 0x20 || v[i] == 0x7f) {
		i++
	}
	return v[i:]
}

// IsAssetPath reports whether a site-relative path names a static file
// rather than a page.
func IsAssetPath(p string) bool {
	p = strings.TrimLeft(p, "/")
	lower := strings.ToLower(p)
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	return assetExtensions[path.Ext(lower)]
}

func (n URLNormalizer) hasLanguagePrefix(rel string) bool {
	first, _, _ := strings.Cut(rel, "/")
	if i := strings.IndexAny(first, "?#"); i >= 0 {
		first = first[:i]
	}
	if first == "" {
		return false
	}
	if strings.EqualFold(first, n.Lang) {
		return true
	}
	for _, lang := range n.Languages {
		if strings.EqualFold(first, lang) {
			return true
		}
	}
	return false
}

// ValidateBaseURL checks the configured site base URL: either a root-relative
// path such as "/" or "/site/", or an absolute http(s) URL with a host.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if strings.HasPrefix(rawURL, "/") && !strings.HasPrefix(rawURL, "//") {
		if strings.ContainsAny(rawURL, " \"'<>\\") {
			return fmt.Errorf("base URL contains invalid characters: %q", rawURL)
		}
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	dangerous := []string{"`", "<", ">", "\"", "'", "\\", "\n", "\r", " "}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}
