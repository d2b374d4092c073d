package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteErrorError(t *testing.T) {
	err := ErrNodeNotFound("0.3").WithStructure("page:home")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_NODE_NOT_FOUND]")
	assert.Contains(t, msg, "structure:page:home")
	assert.Contains(t, msg, "path:0.3")
}

func TestSiteErrorIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("editing: %w", ErrCannotDeleteRoot())

	assert.True(t, errors.Is(wrapped, ErrCannotDeleteRootSentinel))
	assert.False(t, errors.Is(wrapped, ErrNodeNotFoundSentinel))
}

func TestSiteErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError(ErrCodeWriteFailed, "saving structure", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, ErrCodeInvalidPath, CodeOf(ErrInvalidPath("a", "bad")))
	assert.Equal(t, ErrCodeInternalError, CodeOf(errors.New("plain")))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(ErrComponentNotFound("card")))
	assert.False(t, IsNotFound(ErrInvalidNode("x")))
	assert.True(t, IsSecurityError(ErrInvalidName("../etc")))
}

func TestIssueCollector(t *testing.T) {
	collector := NewIssueCollector()
	assert.False(t, collector.HasIssues())
	assert.Empty(t, collector.Overlay())

	collector.Add(Issue{Structure: "page:home", Path: "0", Kind: IssueKindSecurity, Message: "blocked tag script", Severity: IssueSeverityWarning})
	collector.Add(Issue{Structure: "menu", Path: "1", Kind: IssueKindLookup, Message: "component <x> missing", Severity: IssueSeverityError})

	require.True(t, collector.HasIssues())
	assert.Equal(t, 2, collector.Count(""))
	assert.Equal(t, 1, collector.Count(IssueKindSecurity))
	assert.Len(t, collector.ByStructure("menu"), 1)
	assert.False(t, collector.Issues()[0].Timestamp.IsZero())

	overlay := collector.Overlay()
	assert.Contains(t, overlay, "2 render issue(s)")
	assert.Contains(t, overlay, "component &lt;x&gt; missing")

	collector.Clear()
	assert.False(t, collector.HasIssues())
}

func TestIssueSeverityString(t *testing.T) {
	assert.Equal(t, "info", IssueSeverityInfo.String())
	assert.Equal(t, "warning", IssueSeverityWarning.String())
	assert.Equal(t, "error", IssueSeverityError.String())
	assert.Equal(t, "unknown", IssueSeverity(42).String())
}
