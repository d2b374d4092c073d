// Package validation holds the sandbox rules applied to untrusted structure
// content: tag and attribute name checks, deny lists, the URL normalizer and
// name checks for files addressed by user input.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	tagNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	attrNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)
	namePattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	keyPattern      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)+$`)
)

// deniedTags are never rendered, whatever the allow list says.
var deniedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"slot":     true,
	"object":   true,
	"embed":    true,
	"applet":   true,
	"frame":    true,
	"frameset": true,
	"base":     true,
	"meta":     true,
	"link":     true,
	"html":     true,
	"head":     true,
	"body":     true,
	// SVG animation can set href to a script URL after sanitization.
	"animate":          true,
	"animatemotion":    true,
	"animatetransform": true,
	"set":              true,
}

var voidElements = map[string]bool{
	"area":   true,
	"br":     true,
	"col":    true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
	"embed":  true,
	"base":   true,
	"meta":   true,
	"link":   true,
}

var translatableAttrs = map[string]bool{
	"placeholder":      true,
	"title":            true,
	"alt":              true,
	"aria-label":       true,
	"aria-description": true,
	"aria-placeholder": true,
	"label":            true,
}

var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"cite":       true,
	"background": true,
	"xlink:href": true,
}

// DeniedTags returns the deny list in a stable order.
func DeniedTags() []string {
	return []string{
		"script", "style", "noscript", "template", "slot", "object", "embed", "applet",
		"frame", "frameset", "base", "meta", "link", "html", "head", "body",
		"animate", "animatemotion", "animatetransform", "set",
	}
}

// IsValidTagName reports whether tag only uses [a-z0-9-], case-insensitive.
func IsValidTagName(tag string) bool {
	return tagNamePattern.MatchString(tag)
}

// IsDeniedTag reports whether tag is on the deny list.
func IsDeniedTag(tag string) bool {
	return deniedTags[strings.ToLower(tag)]
}

// IsVoidElement reports whether tag has no closing tag.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// IsValidAttrName reports whether name only uses [a-z0-9_:-], case-insensitive.
func IsValidAttrName(name string) bool {
	return attrNamePattern.MatchString(name)
}

// IsEventAttr reports whether name is an on* handler.
func IsEventAttr(name string) bool {
	return len(name) > 2 && strings.EqualFold(name[:2], "on")
}

// IsTranslatableAttr reports whether the value of name is human-facing text.
func IsTranslatableAttr(name string) bool {
	return translatableAttrs[strings.ToLower(name)]
}

// IsURLAttr reports whether the value of name is a URL.
func IsURLAttr(name string) bool {
	return urlAttrs[strings.ToLower(name)]
}

// LooksLikeTranslationKey reports whether value has the dotted shape of a
// translation key, such as "form.email.placeholder".
func LooksLikeTranslationKey(value string) bool {
	return keyPattern.MatchString(value)
}

// IsSafeStyle rejects inline styles that can execute script.
func IsSafeStyle(value string) bool {
	lower := strings.ToLower(stripInvisible(value))
	for _, bad := range []string{"javascript:", "vbscript:", "expression(", "-moz-binding", "behavior:"} {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	if strings.Contains(lower, "url(") && strings.Contains(lower, "data:") {
		return false
	}
	return true
}

// ValidateName checks a component or structure name taken from user input.
// Only [A-Za-z0-9_-] is allowed, which rules out path traversal.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("name too long: %d characters", len(name))
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name %q may only contain letters, digits, '_' and '-'", name)
	}
	return nil
}

// ValidateOrigin validates WebSocket origin for CSRF protection
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// stripInvisible removes whitespace and control characters, which browsers
// ignore inside a URL scheme.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
