package services

import (
	"context"
	"fmt"

	"github.com/conneroisu/quicksite/internal/audit"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/registry"
)

// CheckService renders every structure and component of a project and
// audits the output.
type CheckService struct {
	render *RenderService
	logger logging.Logger
}

// NewCheckService creates a check service on top of render.
func NewCheckService(render *RenderService, logger logging.Logger) *CheckService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CheckService{render: render, logger: logger.WithComponent("check")}
}

// CheckOptions select what is checked.
type CheckOptions struct {
	// Langs to render in. Empty means the default language.
	Langs      []string
	Components bool
}

// CheckResult is the outcome for one structure in one language.
type CheckResult struct {
	Structure string        `json:"structure" yaml:"structure"`
	Lang      string        `json:"lang" yaml:"lang"`
	Issues    []IssueRecord `json:"issues" yaml:"issues"`
	Report    *audit.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// IssueRecord is the serialisable form of a render issue.
type IssueRecord struct {
	Path     string `json:"path" yaml:"path"`
	Kind     string `json:"kind" yaml:"kind"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// Failed reports whether the structure could not be rendered or the audit
// found a hazard.
func (r CheckResult) Failed() bool {
	return r.Error != "" || (r.Report != nil && !r.Report.Clean())
}

// CheckSummary aggregates a check run.
type CheckSummary struct {
	Results    []CheckResult `json:"results" yaml:"results"`
	Structures int           `json:"structures" yaml:"structures"`
	Issues     int           `json:"issues" yaml:"issues"`
	Failed     int           `json:"failed" yaml:"failed"`
	// Cycles lists component reference loops such as [a b a].
	Cycles [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
}

// OK reports whether every structure passed and no component includes
// itself.
func (s *CheckSummary) OK() bool {
	return s.Failed == 0 && len(s.Cycles) == 0
}

// Run checks the project.
func (s *CheckService) Run(ctx context.Context, opts CheckOptions) (*CheckSummary, error) {
	op := logging.StartOperation(s.logger, "check")

	proj := s.render.Project()
	refs, err := proj.Refs()
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	components := registry.NewComponentRegistry()
	if err := proj.Components(s.logger).Scan(components); err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	if opts.Components {
		for _, info := range components.GetAll() {
			refs = append(refs, project.Component(info.Name))
		}
	}

	langs := opts.Langs
	if len(langs) == 0 {
		langs = []string{s.render.Lang("")}
	}

	functions, err := proj.FunctionSet(ctx)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	auditor := audit.NewAuditor(functions, s.logger)
	editor := false

	summary := &CheckSummary{Cycles: components.DetectCircularDependencies()}
	for _, cycle := range summary.Cycles {
		s.logger.Warn(ctx, nil, "Component cycle", "cycle", cycle)
	}
	for _, lang := range langs {
		for _, ref := range refs {
			req := RenderRequest{Lang: lang, Editor: &editor}
			result := CheckResult{Structure: ref.String(), Lang: s.render.Lang(lang)}

			out, err := s.renderRef(ctx, ref, req)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Issues = IssueRecords(out.Issues)
				result.Report, err = auditor.Analyze(ctx, ref.String(), out.HTML)
				if err != nil {
					result.Error = fmt.Sprintf("audit: %v", err)
				}
			}

			summary.Structures++
			summary.Issues += len(result.Issues)
			if result.Failed() {
				summary.Failed++
			}
			summary.Results = append(summary.Results, result)
		}
	}

	s.logger.Info(ctx, "Check completed", "structures", summary.Structures,
		"issues", summary.Issues, "failed", summary.Failed, "cycles", len(summary.Cycles))
	op.End(ctx)
	return summary, nil
}

func (s *CheckService) renderRef(ctx context.Context, ref project.Ref, req RenderRequest) (*Output, error) {
	if ref.Kind == project.RefComponent {
		return s.render.Preview(ctx, ref.Name, nil, req)
	}
	return s.render.RenderRef(ctx, ref, req)
}

// IssueRecords converts render issues for reports and API responses.
func IssueRecords(issues []qserrors.Issue) []IssueRecord {
	out := make([]IssueRecord, 0, len(issues))
	for _, issue := range issues {
		path := issue.Path
		if path == "" {
			path = "(root)"
		}
		out = append(out, IssueRecord{
			Path:     path,
			Kind:     string(issue.Kind),
			Severity: issue.Severity.String(),
			Message:  issue.Message,
		})
	}
	return out
}
