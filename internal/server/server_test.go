package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quicksite/internal/config"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/services"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/testutils"
	"github.com/conneroisu/quicksite/internal/watcher"
)

func setupTestServer(t *testing.T, mutate func(*config.Config)) (*PreviewServer, string) {
	t.Helper()
	proj := testutils.OpenTestProject(t)
	cfg := testutils.CreateTestConfig(proj.Root())
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(cfg, proj, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, proj.Root()
}

func serve(s *PreviewServer, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// pending drains queued hub messages without a running hub.
func pending(s *PreviewServer) []UpdateMessage {
	var out []UpdateMessage
	for {
		select {
		case data := <-s.hub.broadcast:
			var msg UpdateMessage
			if json.Unmarshal(data, &msg) == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Len(t, w.Header().Get(RequestIDHeader), 26)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, false, health["editor"])
	assert.Equal(t, float64(0), health["clients"])
}

func TestRequestIDPassthrough(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}

func TestHandleIndex(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.WritePage(t, root, "home", `[]`)
	testutils.CreateTestComponent(t, root, "card", `{"tag":"div"}`)

	w := serve(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `<a href="/page/home">home</a>`)
	assert.Contains(t, body, `<a href="/component/card">card</a>`)
	assert.Contains(t, body, `new WebSocket(`)

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/nowhere", "").Code)
}

func TestHandleComponents(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.CreateTestComponent(t, root, "card", `{"tag":"div","children":[{"textKey":"{{title}}"}]}`)

	w := serve(s, http.MethodGet, "/components", "")
	require.Equal(t, http.StatusOK, w.Code)

	var components []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &components))
	require.Len(t, components, 1)
	assert.Equal(t, "card", components[0]["name"])
	assert.Equal(t, []interface{}{"title"}, components[0]["placeholders"])
}

func TestHandleComponent(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.CreateTestComponent(t, root, "badge", `{"tag":"span","params":{"class":"badge"},"children":[{"textKey":"{{label}}"}]}`)

	tests := []struct {
		name     string
		target   string
		status   int
		contains []string
		code     string
	}{
		{
			name:     "sample data",
			target:   "/component/badge?data=" + url.QueryEscape(`{"label":"__RAW__Hi"}`),
			status:   http.StatusOK,
			contains: []string{`<span class="badge">Hi</span>`, `data-qs-structures="component:badge"`, `<title>badge</title>`},
		},
		{
			name:     "generated sample",
			target:   "/component/badge",
			status:   http.StatusOK,
			contains: []string{`<span class="badge">Sample Label</span>`},
		},
		{name: "invalid data", target: "/component/badge?data=nope", status: http.StatusBadRequest, code: qserrors.ErrCodeInvalidJSON},
		{name: "invalid name", target: "/component/bad.name", status: http.StatusBadRequest, code: qserrors.ErrCodeInvalidName},
		{name: "missing", target: "/component/ghost", status: http.StatusNotFound, code: qserrors.ErrCodeComponentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, w.Code)
			for _, want := range tt.contains {
				assert.Contains(t, w.Body.String(), want)
			}
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			}
		})
	}
}

func TestHandlePage(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.WriteStructure(t, root, "menu", `[{"tag":"nav"}]`)
	testutils.WritePage(t, root, "home", `[{"tag":"main","children":[{"textKey":"__RAW__Hello"}]}]`)

	w := serve(s, http.MethodGet, "/page/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, `<nav></nav><main>Hello</main>`)
	assert.Contains(t, body, `data-qs-structures="menu page:home footer"`)
	assert.NotContains(t, body, "data-qs-node")

	w = serve(s, http.MethodGet, "/page/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, qserrors.ErrCodeStructureNotFound, decodeError(t, w).Code)
}

func TestHandlePage_EditorMode(t *testing.T) {
	s, root := setupTestServer(t, func(c *config.Config) { c.Server.Editor = true })
	testutils.WritePage(t, root, "home", `[{"tag":"p"},{"tag":"script"}]`)

	w := serve(s, http.MethodGet, "/page/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-qs-struct="page:home" data-qs-node="0"`)
	assert.Contains(t, w.Body.String(), "qs-issue-overlay")
}

func TestHandleNode(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.WritePage(t, root, "home", `[{"tag":"ul","children":[{"tag":"li"},{"tag":"li","children":[{"textKey":"__RAW__two"}]}]}]`)

	w := serve(s, http.MethodGet, "/api/node?structure=page:home&path=0.1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp NodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "page:home", resp.Structure)
	assert.Equal(t, "0.1", resp.Path)
	assert.Equal(t, "<li>two</li>", resp.HTML)
	assert.Len(t, resp.RenderID, 26)
	assert.Empty(t, resp.Issues)

	errorCases := map[string]struct {
		target string
		status int
		code   string
	}{
		"bad ref":      {"/api/node?structure=home&path=0", http.StatusBadRequest, qserrors.ErrCodeInvalidName},
		"bad path":     {"/api/node?structure=page:home&path=0..1", http.StatusBadRequest, qserrors.ErrCodeInvalidPath},
		"missing node": {"/api/node?structure=page:home&path=0.9", http.StatusNotFound, qserrors.ErrCodeNodeNotFound},
		"missing page": {"/api/node?structure=page:nope&path=0", http.StatusNotFound, qserrors.ErrCodeStructureNotFound},
	}
	for name, tc := range errorCases {
		t.Run(name, func(t *testing.T) {
			w := serve(s, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestHandleStructure_EditorDisabled(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.WritePage(t, root, "home", `[{"tag":"p"}]`)

	w := serve(s, http.MethodPost, "/api/structure", `{"action":"delete","structure":"page:home","path":"0"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, qserrors.ErrCodeEditorDisabled, decodeError(t, w).Code)

	data, err := os.ReadFile(filepath.Join(root, "structures", "pages", "home.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"p"`)
}

func TestHandleStructure(t *testing.T) {
	s, root := setupTestServer(t, func(c *config.Config) { c.Server.Editor = true })
	testutils.WritePage(t, root, "home", `[{"tag":"p"}]`)

	post := func(body string) (int, structure.OperationResult) {
		w := serve(s, http.MethodPost, "/api/structure", body)
		var result structure.OperationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		return w.Code, result
	}

	status, result := post(`{"action":"get","structure":"page:home","path":"0"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]interface{}{"tag": "p"}, result.Structure)
	assert.Empty(t, pending(s), "reads are not broadcast")

	status, result = post(`{"action":"append","structure":"page:home","path":"0","node":{"tag":"span"}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)
	require.NotNil(t, result.InsertedAt)
	assert.Equal(t, 0, *result.InsertedAt)

	msgs := pending(s)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageStructureChanged, msgs[0].Type)
	assert.Equal(t, "page:home", msgs[0].Target)

	proj, err := project.Open(root, project.Options{})
	require.NoError(t, err)
	saved, err := proj.Load(project.Page("home"))
	require.NoError(t, err)
	assert.Equal(t, 2, structure.Count(saved))

	status, result = post(`{"action":"undo","structure":"page:home"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)

	status, result = post(`{"action":"undo","structure":"page:home"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, result.Success)
	assert.Equal(t, qserrors.ErrCodeNoHistory, result.Code)

	status, result = post(`{"action":"delete","structure":"page:home","path":"4"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, qserrors.ErrCodeNodeNotFound, result.Code)

	status, result = post(`{"action":"explode","structure":"page:home"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, qserrors.ErrCodeInvalidCommand, result.Code)

	status, result = post(`{"action":"get","structure":"page:home","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, qserrors.ErrCodeInvalidJSON, result.Code)
}

func TestHandleCheck(t *testing.T) {
	s, root := setupTestServer(t, nil)
	testutils.WritePage(t, root, "home", `[{"tag":"p"},{"tag":"script"}]`)
	testutils.CreateTestComponent(t, root, "card", `{"tag":"div"}`)

	w := serve(s, http.MethodGet, "/api/check", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary services.CheckSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Structures)
	assert.Equal(t, 1, summary.Issues)
	assert.Zero(t, summary.Failed)
}

func TestCORS(t *testing.T) {
	s, _ := setupTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/structure", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		qserrors.ErrCodeNodeNotFound:      http.StatusNotFound,
		qserrors.ErrCodeStructureNotFound: http.StatusNotFound,
		qserrors.ErrCodeNoHistory:         http.StatusConflict,
		qserrors.ErrCodeEditorDisabled:    http.StatusForbidden,
		qserrors.ErrCodeWriteFailed:       http.StatusInternalServerError,
		qserrors.ErrCodeInvalidPath:       http.StatusBadRequest,
		qserrors.ErrCodeCannotDeleteRoot:  http.StatusBadRequest,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusForCode(code), code)
	}
}

func TestHandleFileChanges_ComponentDependents(t *testing.T) {
	s, root := setupTestServer(t, nil)
	badge := testutils.CreateTestComponent(t, root, "badge", `{"tag":"span","children":[{"textKey":"{{label}}"}]}`)
	testutils.CreateTestComponent(t, root, "card", `{"tag":"div","children":[{"component":"badge","data":{"label":"New"}}]}`)
	testutils.WritePage(t, root, "home", `[{"tag":"main","children":[{"component":"card"}]}]`)
	testutils.WritePage(t, root, "about", `[{"tag":"p"}]`)
	testutils.WriteStructure(t, root, "menu", `[{"component":"badge"}]`)
	require.NoError(t, s.refreshComponents())

	require.NoError(t, s.handleFileChanges([]watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: badge},
	}))
	msgs := pending(s)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"component:badge", "component:card", "page:home", "menu"}, msgs[0].Targets)

	// A component created after startup is picked up by the rescan.
	chip := testutils.CreateTestComponent(t, root, "chip", `{"tag":"b"}`)
	testutils.WritePage(t, root, "about", `[{"component":"chip"}]`)
	require.NoError(t, s.handleFileChanges([]watcher.ChangeEvent{
		{Type: watcher.EventTypeCreated, Path: chip},
	}))
	msgs = pending(s)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"component:chip", "page:about"}, msgs[0].Targets)
	_, ok := s.components.Get("chip")
	assert.True(t, ok)
}

func TestHandleFileChanges(t *testing.T) {
	s, root := setupTestServer(t, nil)
	page := filepath.Join(root, "structures", "pages", "home.json")
	component := filepath.Join(root, "components", "card.json")
	catalog := filepath.Join(root, "translate", "en.json")

	require.NoError(t, s.handleFileChanges([]watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: component},
		{Type: watcher.EventTypeModified, Path: page},
	}))
	msgs := pending(s)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageReload, msgs[0].Type)
	assert.Equal(t, []string{"component:card", "page:home"}, msgs[0].Targets)

	require.NoError(t, s.handleFileChanges([]watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: page},
		{Type: watcher.EventTypeModified, Path: catalog},
	}))
	msgs = pending(s)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Targets)
}
