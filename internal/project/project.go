// Package project is the file-backed store around the rendering core. It maps
// structure refs to JSON files, commits editor results atomically and keeps
// a short undo history of every overwritten document.
//
//	<root>/structures/pages/<name>.json
//	<root>/structures/menu.json
//	<root>/structures/footer.json
//	<root>/components/<name>.json
//	<root>/translate/<lang>.json
//	<root>/functions.yaml
//	<root>/.quicksite/history/<ref>/<ulid>.msgpack
package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/quicksite/internal/callsyntax"
	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/i18n"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/registry"
	"github.com/conneroisu/quicksite/internal/structure"
)

// Layout names.
const (
	StructuresDir  = "structures"
	PagesDir       = "pages"
	ComponentsDir  = "components"
	TranslateDir   = "translate"
	FunctionsFile  = "functions.yaml"
	HistoryDir     = ".quicksite/history"
	DocumentExt    = ".json"
	DefaultHistory = 50
)

// Options tune a Project.
type Options struct {
	// HistoryLimit is the number of snapshots kept per structure. Zero means
	// DefaultHistory; a negative value disables history.
	HistoryLimit int
	Logger       logging.Logger
}

// Project is a quicksite project rooted at a directory.
type Project struct {
	root         string
	historyLimit int
	logger       logging.Logger
}

// Open returns the project rooted at root, which must be a directory.
func Open(root string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "resolve project root", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "open project "+root, err)
	}
	if !info.IsDir() {
		return nil, qserrors.NewConfigError(qserrors.ErrCodeConfigInvalid, "project root is not a directory: "+root)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.HistoryLimit == 0 {
		opts.HistoryLimit = DefaultHistory
	}
	return &Project{
		root:         abs,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger.WithComponent("project"),
	}, nil
}

// Init creates the project directories under root and opens it.
func Init(root string, opts Options) (*Project, error) {
	for _, dir := range []string{
		filepath.Join(StructuresDir, PagesDir),
		ComponentsDir,
		TranslateDir,
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "create "+dir, err)
		}
	}
	return Open(root, opts)
}

// Root returns the absolute project directory.
func (p *Project) Root() string { return p.root }

// ComponentsDir returns the component template directory.
func (p *Project) ComponentsDir() string { return filepath.Join(p.root, ComponentsDir) }

// TranslateDir returns the translation catalog directory.
func (p *Project) TranslateDir() string { return filepath.Join(p.root, TranslateDir) }

// Path returns the file that stores ref.
func (p *Project) Path(ref Ref) string {
	switch ref.Kind {
	case RefMenu, RefFooter:
		return filepath.Join(p.root, StructuresDir, ref.Kind.String()+DocumentExt)
	case RefComponent:
		return filepath.Join(p.ComponentsDir(), ref.Name+DocumentExt)
	default:
		return filepath.Join(p.root, StructuresDir, PagesDir, ref.Name+DocumentExt)
	}
}

// RefFor maps a file inside the project back to the structure it stores.
// Files that hold no structure, such as catalogs and history snapshots,
// report false.
func (p *Project) RefFor(path string) (Ref, bool) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || filepath.Ext(rel) != DocumentExt {
		return Ref{}, false
	}
	dir, file := filepath.Split(filepath.ToSlash(rel))
	name := strings.TrimSuffix(file, DocumentExt)
	switch dir {
	case StructuresDir + "/":
		switch name {
		case "menu":
			return Ref{Kind: RefMenu}, true
		case "footer":
			return Ref{Kind: RefFooter}, true
		}
	case StructuresDir + "/" + PagesDir + "/":
		return Page(name), true
	case ComponentsDir + "/":
		return Component(name), true
	}
	return Ref{}, false
}

// Exists reports whether ref has a file.
func (p *Project) Exists(ref Ref) bool {
	_, err := os.Stat(p.Path(ref))
	return err == nil
}

// Load reads and decodes the structure named by ref.
func (p *Project) Load(ref Ref) (any, error) {
	data, err := os.ReadFile(p.Path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, qserrors.ErrStructureNotFound(ref.String())
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read "+ref.String(), err)
	}
	s, err := structure.Decode(data)
	if err != nil {
		if se, ok := err.(*qserrors.SiteError); ok {
			return nil, se.WithStructure(ref.String())
		}
		return nil, err
	}
	return s, nil
}

// LoadRaw returns the stored bytes of ref.
func (p *Project) LoadRaw(ref Ref) ([]byte, error) {
	data, err := os.ReadFile(p.Path(ref))
	if os.IsNotExist(err) {
		return nil, qserrors.ErrStructureNotFound(ref.String())
	}
	return data, err
}

// Save writes s as the new content of ref. The previous content, if any, is
// kept as a history snapshot tagged with action.
func (p *Project) Save(ctx context.Context, ref Ref, s any, action string) error {
	data, err := structure.Encode(structure.StripAnnotations(s))
	if err != nil {
		return err
	}

	path := p.Path(ref)
	if prev, err := os.ReadFile(path); err == nil {
		if err := p.snapshot(ref, prev, action); err != nil {
			p.logger.Warn(ctx, err, "Failed to record history snapshot", "structure", ref.String())
		}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	p.logger.Info(ctx, "Structure saved", "structure", ref.String(), "action", action, "bytes", len(data))
	return nil
}

// Pages lists page names, sorted.
func (p *Project) Pages() ([]string, error) {
	return listDocuments(filepath.Join(p.root, StructuresDir, PagesDir))
}

// Refs lists every structure that exists: pages, then menu and footer.
func (p *Project) Refs() ([]Ref, error) {
	pages, err := p.Pages()
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(pages)+2)
	for _, name := range pages {
		refs = append(refs, Page(name))
	}
	for _, r := range []Ref{{Kind: RefMenu}, {Kind: RefFooter}} {
		if p.Exists(r) {
			refs = append(refs, r)
		}
	}
	return refs, nil
}

// Functions reads the custom call functions from functions.yaml. A missing
// file means no custom functions.
func (p *Project) Functions() ([]callsyntax.FunctionSpec, error) {
	data, err := os.ReadFile(filepath.Join(p.root, FunctionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read "+FunctionsFile, err)
	}

	var doc struct {
		Functions []callsyntax.FunctionSpec `yaml:"functions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, qserrors.NewConfigError(qserrors.ErrCodeConfigInvalid, "invalid "+FunctionsFile+": "+err.Error())
	}
	return doc.Functions, nil
}

// FunctionSet merges the core call functions with the project's custom ones.
// Custom entries that clash with a core function are skipped and logged.
func (p *Project) FunctionSet(ctx context.Context) (*callsyntax.FunctionSet, error) {
	custom, err := p.Functions()
	if err != nil {
		return nil, err
	}
	set, skipped, err := callsyntax.NewFunctionSet(custom)
	if err != nil {
		return nil, qserrors.NewConfigError(qserrors.ErrCodeConfigInvalid, err.Error())
	}
	for _, name := range skipped {
		p.logger.Warn(ctx, nil, "Custom function shadows a core function, skipped", "function", name)
	}
	return set, nil
}

// Components returns a fresh component loader for one render pass.
func (p *Project) Components(logger logging.Logger) *registry.ComponentLoader {
	if logger == nil {
		logger = p.logger
	}
	return registry.NewComponentLoader(p.ComponentsDir(), logger)
}

// Translations returns a catalog store over the translate directory.
func (p *Project) Translations() *i18n.Store {
	return i18n.NewStore(p.TranslateDir())
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "list "+dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != DocumentExt {
			continue
		}
		names = append(names, strings.TrimSuffix(name, DocumentExt))
	}
	sort.Strings(names)
	return names, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "write "+path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "sync "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "close "+path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "replace "+path, err)
	}
	return nil
}
