package server

import (
	"encoding/json"
	"net/http"
	"time"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/services"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
	"github.com/conneroisu/quicksite/internal/version"
)

// maxCommandBytes bounds editor API request bodies.
const maxCommandBytes = 1 << 20

// NodeResponse is the body of GET /api/node.
type NodeResponse struct {
	Structure string                 `json:"structure"`
	Path      string                 `json:"path"`
	HTML      string                 `json:"html"`
	RenderID  string                 `json:"renderId"`
	Issues    []services.IssueRecord `json:"issues"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"editor":    s.config.Server.Editor,
		"clients":   s.hub.Count(),
	})
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	pages, err := s.project.Pages()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	components, err := s.project.Components(s.logger).List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePage(w, r, "quicksite", s.render.Lang(""), indexBody(pages, components), "", nil)
}

func (s *PreviewServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	if err := s.refreshComponents(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.components.GetAll())
}

// handleComponent previews a component. Sample data may be passed as a JSON
// object in the data query parameter.
func (s *PreviewServer) handleComponent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := validation.ValidateName(name); err != nil {
		s.writeError(w, r, qserrors.ErrInvalidName(name))
		return
	}

	var sample map[string]any
	if raw := r.URL.Query().Get("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sample); err != nil {
			s.writeError(w, r, qserrors.NewValidationError(qserrors.ErrCodeInvalidJSON, "data must be a JSON object"))
			return
		}
	}

	req := s.renderRequest(r)
	out, err := s.render.Preview(r.Context(), name, sample, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ref := project.Component(name)
	s.writePage(w, r, name, s.render.Lang(req.Lang), out.HTML, out.Overlay, []string{ref.String()})
}

// handlePage renders the menu, the page and the footer.
func (s *PreviewServer) handlePage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := validation.ValidateName(name); err != nil {
		s.writeError(w, r, qserrors.ErrInvalidName(name))
		return
	}

	req := s.renderRequest(r)
	out, err := s.render.RenderPage(r.Context(), name, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	shown := []string{"menu", project.Page(name).String(), "footer"}
	s.writePage(w, r, name, s.render.Lang(req.Lang), out.HTML, out.Overlay, shown)
}

// handleNode renders one node for incremental DOM patches.
func (s *PreviewServer) handleNode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref, err := project.ParseRef(q.Get("structure"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	path := q.Get("path")

	out, err := s.render.RenderNode(r.Context(), ref, path, s.renderRequest(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NodeResponse{
		Structure: ref.String(),
		Path:      path,
		HTML:      out.HTML,
		RenderID:  out.RenderID,
		Issues:    services.IssueRecords(out.Issues),
	})
}

// handleStructure applies one editor command. Successful mutations are
// announced to every connected browser.
func (s *PreviewServer) handleStructure(w http.ResponseWriter, r *http.Request) {
	if !s.config.Server.Editor {
		s.writeError(w, r, qserrors.NewSecurityError(qserrors.ErrCodeEditorDisabled, "editor API is disabled"))
		return
	}

	var cmd project.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		result := structure.NewOperationResult(nil,
			qserrors.NewValidationError(qserrors.ErrCodeInvalidJSON, "request body is not a valid command"))
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	result := s.project.Apply(r.Context(), cmd)
	if !result.Success {
		writeJSON(w, statusForCode(result.Code), result)
		return
	}

	if mutates(cmd.Action) {
		s.broadcast(UpdateMessage{
			Type:      MessageStructureChanged,
			Target:    cmd.Structure,
			Timestamp: time.Now(),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func mutates(action string) bool {
	switch action {
	case project.ActionGet, project.ActionAnnotate:
		return false
	default:
		return true
	}
}

// handleCheck renders and audits the whole project.
func (s *PreviewServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	opts := services.CheckOptions{Components: true}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		opts.Langs = []string{lang}
	}
	summary, err := s.check.Run(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// renderRequest reads the render context from the query string. The editor
// server always renders with editor markers.
func (s *PreviewServer) renderRequest(r *http.Request) services.RenderRequest {
	q := r.URL.Query()
	req := services.RenderRequest{
		Lang:   q.Get("lang"),
		ID:     q.Get("id"),
		Params: q["param"],
	}
	if s.config.Server.Editor {
		editor := true
		req.Editor = &editor
	}
	return req
}

func (s *PreviewServer) writePage(w http.ResponseWriter, r *http.Request, title, lang, body, overlay string, structures []string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageShell(title, lang, body, overlay, structures).Render(r.Context(), w); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to write page")
	}
}

func (s *PreviewServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := qserrors.CodeOf(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", "path", r.URL.Path)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func statusForCode(code string) int {
	switch code {
	case qserrors.ErrCodeNodeNotFound, qserrors.ErrCodeStructureNotFound,
		qserrors.ErrCodeComponentNotFound, qserrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case qserrors.ErrCodeNoHistory:
		return http.StatusConflict
	case qserrors.ErrCodeEditorDisabled:
		return http.StatusForbidden
	case qserrors.ErrCodeWriteFailed, qserrors.ErrCodeInternalError, qserrors.ErrCodeConfigInvalid:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
