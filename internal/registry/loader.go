// Package registry loads component templates from a project's components
// directory and indexes their metadata.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/placeholder"
	"github.com/conneroisu/quicksite/internal/structure"
	"github.com/conneroisu/quicksite/internal/validation"
)

// TemplateExt is the file extension of component templates.
const TemplateExt = ".json"

type cacheEntry struct {
	template any
	ok       bool
}

// ComponentLoader reads component templates from <dir>/<name>.json. Results,
// misses included, are cached by name for the lifetime of the loader, so a
// loader must not outlive one render pass if files can change.
type ComponentLoader struct {
	dir    string
	logger logging.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewComponentLoader creates a loader rooted at dir.
func NewComponentLoader(dir string, logger logging.Logger) *ComponentLoader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ComponentLoader{
		dir:    dir,
		logger: logger.WithComponent("component_loader"),
		cache:  make(map[string]cacheEntry),
	}
}

// Dir returns the components directory.
func (l *ComponentLoader) Dir() string {
	return l.dir
}

// Load returns a private copy of the named template. A missing file, an
// unsafe name or invalid JSON all report false; the reason is logged.
func (l *ComponentLoader) Load(ctx context.Context, name string) (any, bool) {
	l.mu.RLock()
	entry, hit := l.cache[name]
	l.mu.RUnlock()
	if hit {
		return structure.Clone(entry.template), entry.ok
	}

	template, err := l.read(name)
	if err != nil {
		l.logger.Warn(ctx, err, "Component unavailable", "name", logging.SanitizeForLog(name))
	}
	entry = cacheEntry{template: template, ok: err == nil}

	l.mu.Lock()
	if existing, raced := l.cache[name]; raced {
		entry = existing
	} else {
		l.cache[name] = entry
	}
	l.mu.Unlock()

	return structure.Clone(entry.template), entry.ok
}

func (l *ComponentLoader) read(name string) (any, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, qserrors.ErrInvalidName(name).WithContext("reason", err.Error())
	}

	data, err := os.ReadFile(l.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, qserrors.ErrComponentNotFound(name)
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read component "+name, err)
	}

	template, err := structure.Decode(data)
	if err != nil {
		return nil, err
	}
	return template, nil
}

func (l *ComponentLoader) pathFor(name string) string {
	return filepath.Join(l.dir, name+TemplateExt)
}

// Info reads the metadata of one component.
func (l *ComponentLoader) Info(name string) (*ComponentInfo, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, qserrors.ErrInvalidName(name)
	}
	path := l.pathFor(name)
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, qserrors.ErrComponentNotFound(name)
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "stat component "+name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read component "+name, err)
	}

	sum := sha256.Sum256(data)
	info := &ComponentInfo{
		Name:     name,
		FilePath: path,
		Size:     stat.Size(),
		LastMod:  stat.ModTime(),
		Hash:     hex.EncodeToString(sum[:8]),
	}

	template, err := structure.Decode(data)
	if err != nil {
		return info, nil
	}
	info.Valid = true
	info.Placeholders = placeholder.ExtractNames(template)
	info.Slots = slotNames(template)
	info.Dependencies = AnalyzeTemplate(template)
	return info, nil
}

// List returns the metadata of every component file, sorted by name. Files
// whose names are not valid component names are skipped.
func (l *ComponentLoader) List() ([]*ComponentInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*ComponentInfo{}, nil
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "list components", err)
	}

	infos := make([]*ComponentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TemplateExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), TemplateExt)
		if validation.ValidateName(name) != nil {
			continue
		}
		info, err := l.Info(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Scan registers every component in r and drops entries whose files are
// gone.
func (l *ComponentLoader) Scan(r *ComponentRegistry) error {
	infos, err := l.List()
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(infos))
	for _, info := range infos {
		present[info.Name] = true
		if existing, ok := r.Get(info.Name); ok && existing.Hash == info.Hash {
			continue
		}
		r.Register(info)
	}
	for _, info := range r.GetAll() {
		if !present[info.Name] {
			r.Remove(info.Name)
		}
	}
	return nil
}

func slotNames(template any) []string {
	seen := map[string]bool{}
	structure.Walk(template, func(_ nodepath.Path, node map[string]any) bool {
		if name, ok := node[structure.KeySlot].(string); ok && nodepath.IsIdentifier(name) {
			seen[name] = true
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
