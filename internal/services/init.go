package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/quicksite/internal/config"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/project"
)

// ConfigFile is the configuration file written by init.
const ConfigFile = ".quicksite.yml"

// InitService handles project initialization.
type InitService struct{}

// NewInitService creates a new initialization service.
func NewInitService() *InitService {
	return &InitService{}
}

// InitOptions contains options for project initialization.
type InitOptions struct {
	ProjectDir string
	// Example writes a sample page, menu, footer, component and catalog.
	Example bool
	Langs   []string
	Force   bool
}

// InitProject creates the project layout and configuration file.
func (s *InitService) InitProject(opts InitOptions) (*project.Project, error) {
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	if len(opts.Langs) == 0 {
		opts.Langs = []string{config.DefaultLang}
	}

	proj, err := project.Init(opts.ProjectDir, project.Options{})
	if err != nil {
		return nil, err
	}

	if err := s.createConfigFile(proj.Root(), opts); err != nil {
		return nil, err
	}
	if opts.Example {
		if err := s.createExample(proj, opts); err != nil {
			return nil, err
		}
	}
	return proj, nil
}

// createConfigFile writes the default configuration. An existing file is
// kept unless Force is set.
func (s *InitService) createConfigFile(root string, opts InitOptions) error {
	path := filepath.Join(root, ConfigFile)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return nil
	}

	cfg := config.Config{
		Project: config.ProjectConfig{Root: ".", HistoryLimit: config.DefaultHistoryLimit},
		Site: config.SiteConfig{
			BaseURL:      config.DefaultBaseURL,
			DefaultLang:  opts.Langs[0],
			Multilingual: len(opts.Langs) > 1,
			Languages:    opts.Langs,
		},
		Render: config.RenderConfig{MaxComponentDepth: config.DefaultMaxComponentDepth},
		Server: config.ServerConfig{
			Port:     config.DefaultPort,
			Host:     config.DefaultHost,
			Debounce: config.DefaultDebounce,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return qserrors.NewInternalError(qserrors.ErrCodeInternalError, "encode configuration", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "write "+ConfigFile, err)
	}
	return nil
}

// example documents, keyed by path relative to the project root.
var exampleFiles = map[string]string{
	filepath.Join(project.StructuresDir, "menu.json"): `[
  {"tag": "nav", "params": {"class": "menu"}, "children": [
    {"tag": "a", "params": {"href": "/home"}, "children": [{"textKey": "menu.home"}]},
    {"tag": "button", "params": {"type": "button", "onclick": "{{call:toggle:#about}}"}, "children": [{"textKey": "menu.about"}]}
  ]}
]
`,
	filepath.Join(project.StructuresDir, "footer.json"): `[
  {"tag": "footer", "children": [{"tag": "p", "children": [{"textKey": "footer.copyright"}]}]}
]
`,
	filepath.Join(project.StructuresDir, project.PagesDir, "home.json"): `[
  {"tag": "main", "children": [
    {"tag": "h1", "children": [{"textKey": "home.title"}]},
    {"component": "card", "data": {"title": "home.card.title", "body": "home.card.body", "image": "/assets/card.png"}},
    {"tag": "section", "params": {"id": "about", "class": "hidden"}, "children": [{"textKey": "home.about"}]}
  ]}
]
`,
	filepath.Join(project.ComponentsDir, "card.json"): `{"tag": "article", "params": {"class": "card"}, "children": [
  {"tag": "img", "params": {"src": "{{image}}", "alt": "{{title}}"}},
  {"tag": "h2", "children": [{"textKey": "{{title}}"}]},
  {"tag": "p", "children": [{"textKey": "{{body}}"}]},
  {"tag": "div", "params": {"class": "card-actions"}, "slot": "actions"}
]}
`,
	project.FunctionsFile: `functions:
  - name: track
    target: Analytics.track
    min_args: 1
    max_args: 2
`,
}

var exampleCatalog = map[string]string{
	"menu.home":        "Home",
	"menu.about":       "About",
	"footer.copyright": "Built with quicksite",
	"home.title":       "Welcome",
	"home.card.title":  "Getting started",
	"home.card.body":   "Edit structures/pages/home.json to change this page.",
	"home.about":       "quicksite renders JSON structures to HTML.",
}

func (s *InitService) createExample(proj *project.Project, opts InitOptions) error {
	for rel, content := range exampleFiles {
		path := filepath.Join(proj.Root(), rel)
		if _, err := os.Stat(path); err == nil && !opts.Force {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "write "+rel, err)
		}
	}

	for _, lang := range opts.Langs {
		path := filepath.Join(proj.TranslateDir(), lang+".json")
		if _, err := os.Stat(path); err == nil && !opts.Force {
			continue
		}
		data, err := catalogJSON(lang)
		if err != nil {
			return qserrors.NewInternalError(qserrors.ErrCodeInternalError, "encode catalog "+lang, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "write catalog "+lang, err)
		}
	}
	return nil
}

// catalogJSON renders the example catalog. Non-default languages get the
// language code in front of each value so untranslated strings stand out.
func catalogJSON(lang string) ([]byte, error) {
	catalog := make(map[string]string, len(exampleCatalog))
	for key, value := range exampleCatalog {
		if lang != config.DefaultLang {
			value = fmt.Sprintf("[%s] %s", lang, value)
		}
		catalog[key] = value
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
