package errors

import (
	"fmt"
	"html"
	"sync"
	"time"
)

// Issue is a degraded-render record: a node that was replaced by a comment
// placeholder or an attribute that was dropped.
type Issue struct {
	Structure string
	Path      string
	Kind      IssueKind
	Message   string
	Severity  IssueSeverity
	Timestamp time.Time
}

// IssueKind groups issues by the rule that produced them.
type IssueKind string

const (
	IssueKindStructural IssueKind = "structural"
	IssueKindLookup     IssueKind = "lookup"
	IssueKindSecurity   IssueKind = "security"
)

// IssueSeverity represents the severity of an issue
type IssueSeverity int

const (
	IssueSeverityInfo IssueSeverity = iota
	IssueSeverityWarning
	IssueSeverityError
)

// String returns the string representation of the severity
func (s IssueSeverity) String() string {
	switch s {
	case IssueSeverityInfo:
		return "info"
	case IssueSeverityWarning:
		return "warning"
	case IssueSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (i *Issue) Error() string {
	return fmt.Sprintf("%s %s [%s] %s: %s", i.Structure, i.Path, i.Kind, i.Severity, i.Message)
}

// IssueCollector collects render issues for one render pass.
type IssueCollector struct {
	issues []Issue
	mutex  sync.RWMutex
}

// NewIssueCollector creates a new issue collector
func NewIssueCollector() *IssueCollector {
	return &IssueCollector{
		issues: make([]Issue, 0),
	}
}

// Add adds an issue to the collector
func (c *IssueCollector) Add(issue Issue) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if issue.Timestamp.IsZero() {
		issue.Timestamp = time.Now()
	}
	c.issues = append(c.issues, issue)
}

// Issues returns a copy of the collected issues
func (c *IssueCollector) Issues() []Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]Issue, len(c.issues))
	copy(result, c.issues)
	return result
}

// HasIssues returns true if anything was collected
func (c *IssueCollector) HasIssues() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.issues) > 0
}

// Count returns the number of collected issues of the given kind, or all
// issues when kind is empty.
func (c *IssueCollector) Count(kind IssueKind) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if kind == "" {
		return len(c.issues)
	}
	n := 0
	for _, issue := range c.issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// ByStructure returns issues for a specific structure label
func (c *IssueCollector) ByStructure(label string) []Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var result []Issue
	for _, issue := range c.issues {
		if issue.Structure == label {
			result = append(result, issue)
		}
	}
	return result
}

// Clear clears all issues
func (c *IssueCollector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.issues = c.issues[:0]
}

// Overlay generates the editor-mode issue panel. It returns an empty string
// when nothing was collected.
func (c *IssueCollector) Overlay() string {
	issues := c.Issues()
	if len(issues) == 0 {
		return ""
	}

	out := `<div id="qs-issue-overlay" style="position:fixed;bottom:0;left:0;right:0;max-height:40%;overflow:auto;` +
		`background:rgba(20,20,20,0.92);color:#fff;font:13px Menlo,Monaco,monospace;padding:12px;z-index:9999">` +
		fmt.Sprintf(`<strong>%d render issue(s)</strong><ul style="margin:6px 0 0 16px;padding:0">`, len(issues))

	for _, issue := range issues {
		color := "#ff6b6b"
		switch issue.Severity {
		case IssueSeverityWarning:
			color = "#feca57"
		case IssueSeverityInfo:
			color = "#48dbfb"
		}
		out += fmt.Sprintf(`<li><span style="color:%s">%s</span> %s <code>%s</code> %s</li>`,
			color,
			html.EscapeString(string(issue.Kind)),
			html.EscapeString(issue.Structure),
			html.EscapeString(issue.Path),
			html.EscapeString(issue.Message),
		)
	}

	return out + `</ul></div>`
}
