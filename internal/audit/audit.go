// Package audit inspects rendered HTML. It is the second line of defence
// behind the renderer sandbox: anything it reports as an error means a
// hazard got through, while warnings point at degraded nodes and common
// accessibility slips in the authored content.
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/quicksite/internal/callsyntax"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/validation"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule IDs.
const (
	RuleDeniedElement  = "denied-element"
	RuleEventHandler   = "unsafe-event-handler"
	RuleUnsafeURL      = "unsafe-url"
	RuleInlineDocument = "inline-document"
	RuleDegradedNode   = "degraded-node"
	RuleMissingAlt     = "missing-alt-text"
	RuleButtonName     = "missing-button-text"
	RuleDuplicateID    = "duplicate-id"
	RuleHeadingOrder   = "heading-order"
)

// Rule describes one check.
type Rule struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
}

// Rules returns the checks in report order.
func Rules() []Rule {
	return []Rule{
		{RuleDeniedElement, "Denied elements must never be rendered", SeverityError},
		{RuleEventHandler, "Event handlers may only call whitelisted functions", SeverityError},
		{RuleUnsafeURL, "URL attributes must not use script or data schemes", SeverityError},
		{RuleInlineDocument, "srcdoc must never be rendered", SeverityError},
		{RuleDegradedNode, "Nodes that failed to render", SeverityWarning},
		{RuleMissingAlt, "Images must have alternative text", SeverityWarning},
		{RuleButtonName, "Buttons must have accessible names", SeverityWarning},
		{RuleDuplicateID, "IDs must be unique", SeverityWarning},
		{RuleHeadingOrder, "Headings must not skip levels", SeverityInfo},
	}
}

// Finding is one rule violation.
type Finding struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Element  string   `json:"element,omitempty" yaml:"element,omitempty"`
	Node     string   `json:"node,omitempty" yaml:"node,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Summary counts findings.
type Summary struct {
	TotalRules  int `json:"total_rules" yaml:"total_rules"`
	PassedRules int `json:"passed_rules" yaml:"passed_rules"`
	Errors      int `json:"errors" yaml:"errors"`
	Warnings    int `json:"warnings" yaml:"warnings"`
	Infos       int `json:"infos" yaml:"infos"`
}

// Report is the audit of one rendered structure.
type Report struct {
	Structure string    `json:"structure" yaml:"structure"`
	Findings  []Finding `json:"findings" yaml:"findings"`
	Summary   Summary   `json:"summary" yaml:"summary"`
}

// Clean reports whether no error was found.
func (r *Report) Clean() bool {
	return r.Summary.Errors == 0
}

// Auditor runs the rules over rendered fragments.
type Auditor struct {
	transformer *callsyntax.Transformer
	logger      logging.Logger
}

// NewAuditor creates an Auditor. Handlers are checked against functions.
func NewAuditor(functions callsyntax.Registry, logger logging.Logger) *Auditor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Auditor{
		transformer: callsyntax.NewTransformer(functions),
		logger:      logger.WithComponent("audit"),
	}
}

// Analyze parses fragment and runs every rule.
func (a *Auditor) Analyze(ctx context.Context, label, fragment string) (*Report, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var elements []*html.Node
	var comments []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			elements = append(elements, n)
		case html.CommentNode:
			comments = append(comments, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	for _, n := range nodes {
		traverse(n)
	}

	report := &Report{Structure: label}
	for _, rule := range Rules() {
		found := a.check(rule, elements, comments)
		report.Findings = append(report.Findings, found...)
		if len(found) == 0 {
			report.Summary.PassedRules++
		}
		report.Summary.TotalRules++
	}
	for _, f := range report.Findings {
		switch f.Severity {
		case SeverityError:
			report.Summary.Errors++
		case SeverityWarning:
			report.Summary.Warnings++
		case SeverityInfo:
			report.Summary.Infos++
		}
	}

	if !report.Clean() {
		logging.LogSecurityEvent(a.logger, ctx, "rendered_hazard", map[string]interface{}{
			"structure": label,
			"errors":    report.Summary.Errors,
		})
	}
	a.logger.Debug(ctx, "Audit completed", "structure", label,
		"elements", len(elements), "findings", len(report.Findings))
	return report, nil
}

func (a *Auditor) check(rule Rule, elements, comments []*html.Node) []Finding {
	var out []Finding
	add := func(n *html.Node, msg string) {
		f := Finding{Rule: rule.ID, Severity: rule.Severity, Message: msg}
		if n != nil {
			f.Element = selector(n)
			f.Node, _ = attr(n, "data-qs-node")
		}
		out = append(out, f)
	}

	switch rule.ID {
	case RuleDeniedElement:
		for _, n := range elements {
			if validation.IsDeniedTag(n.Data) {
				add(n, "denied element <"+n.Data+">")
			}
		}

	case RuleEventHandler:
		for _, n := range elements {
			for _, at := range n.Attr {
				if validation.IsEventAttr(at.Key) && !a.transformer.Validate(at.Val) {
					add(n, fmt.Sprintf("handler %s=%q", at.Key, at.Val))
				}
			}
		}

	case RuleUnsafeURL:
		for _, n := range elements {
			for _, at := range n.Attr {
				if validation.IsURLAttr(at.Key) && validation.HasBlockedScheme(at.Val) {
					add(n, fmt.Sprintf("%s uses a blocked scheme", at.Key))
				}
			}
		}

	case RuleInlineDocument:
		for _, n := range elements {
			if _, ok := attr(n, "srcdoc"); ok {
				add(n, "srcdoc attribute")
			}
		}

	case RuleDegradedNode:
		for _, c := range comments {
			if reason, ok := strings.CutPrefix(strings.TrimSpace(c.Data), "qs:"); ok {
				add(nil, strings.TrimSpace(reason))
			}
		}

	case RuleMissingAlt:
		for _, n := range elements {
			if n.DataAtom == atom.Img {
				if alt, ok := attr(n, "alt"); !ok || alt == "" {
					add(n, "image missing alt attribute")
				}
			}
		}

	case RuleButtonName:
		for _, n := range elements {
			if n.DataAtom == atom.Button && !hasAccessibleName(n) {
				add(n, "button missing accessible name")
			}
		}

	case RuleDuplicateID:
		byID := map[string][]*html.Node{}
		for _, n := range elements {
			if id, ok := attr(n, "id"); ok && id != "" {
				byID[id] = append(byID[id], n)
			}
		}
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if len(byID[id]) > 1 {
				add(byID[id][1], "duplicate id "+id)
			}
		}

	case RuleHeadingOrder:
		prev := 0
		for _, n := range elements {
			level := headingLevel(n)
			if level == 0 {
				continue
			}
			if prev != 0 && level > prev+1 {
				add(n, fmt.Sprintf("h%d follows h%d", level, prev))
			}
			prev = level
		}
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func selector(n *html.Node) string {
	if id, ok := attr(n, "id"); ok && id != "" {
		return n.Data + "#" + id
	}
	if class, ok := attr(n, "class"); ok {
		if classes := strings.Fields(class); len(classes) > 0 {
			return n.Data + "." + strings.Join(classes, ".")
		}
	}
	return n.Data
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasAccessibleName(n *html.Node) bool {
	if strings.TrimSpace(textContent(n)) != "" {
		return true
	}
	for _, key := range []string{"aria-label", "aria-labelledby", "title"} {
		if v, ok := attr(n, key); ok && v != "" {
			return true
		}
	}
	return false
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	default:
		return 0
	}
}
