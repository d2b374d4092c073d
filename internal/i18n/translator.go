// Package i18n resolves translation keys for the renderer.
//
// Catalogs are JSON documents under translate/<lang>.json holding nested
// objects, so "nav.home" looks up {"nav": {"home": "..."}}. A flat key such
// as {"nav.home": "..."} is accepted as well. Missing keys never fail: the
// key itself is returned so the page shows what is untranslated.
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/placeholder"
)

// Translator is the lookup the renderer consumes.
type Translator interface {
	Translate(key string, params map[string]string) string
}

// Catalog is one language's decoded translations.
type Catalog map[string]any

// Lookup resolves a dotted key.
func (c Catalog) Lookup(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	if v, ok := c[key].(string); ok {
		return v, true
	}

	var cur any = map[string]any(c)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[part]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

// Keys returns every dotted key that resolves to a string, sorted.
func (c Catalog) Keys() []string {
	var keys []string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch t := v.(type) {
		case string:
			keys = append(keys, prefix)
		case map[string]any:
			for k, child := range t {
				next := k
				if prefix != "" {
					next = prefix + "." + k
				}
				walk(next, child)
			}
		}
	}
	walk("", map[string]any(c))
	sort.Strings(keys)
	return keys
}

// MapTranslator translates from in-memory catalogs, falling back to a
// second catalog before returning the key.
type MapTranslator struct {
	Primary  Catalog
	Fallback Catalog
}

// Translate implements Translator.
func (t *MapTranslator) Translate(key string, params map[string]string) string {
	v, ok := t.Primary.Lookup(key)
	if !ok {
		v, ok = t.Fallback.Lookup(key)
	}
	if !ok {
		return key
	}
	return interpolate(v, params)
}

// Has reports whether key resolves in either catalog.
func (t *MapTranslator) Has(key string) bool {
	if _, ok := t.Primary.Lookup(key); ok {
		return true
	}
	_, ok := t.Fallback.Lookup(key)
	return ok
}

func interpolate(v string, params map[string]string) string {
	if len(params) == 0 {
		return v
	}
	data := make(map[string]any, len(params))
	for k, p := range params {
		data[k] = p
	}
	return placeholder.SubstituteString(v, data)
}

// Store loads catalogs from a translate directory on demand and keeps them
// for its lifetime.
type Store struct {
	dir string

	mu       sync.RWMutex
	catalogs map[string]Catalog
}

// NewStore creates a store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, catalogs: make(map[string]Catalog)}
}

// Catalog returns the catalog for lang. A missing file yields an empty
// catalog; a malformed one is an error.
func (s *Store) Catalog(lang string) (Catalog, error) {
	if _, err := language.Parse(lang); err != nil {
		return nil, qserrors.NewValidationError(qserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid language tag %q", lang))
	}

	s.mu.RLock()
	c, ok := s.catalogs[lang]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	c = Catalog{}
	data, err := os.ReadFile(filepath.Join(s.dir, lang+".json"))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read translations for "+lang, err)
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, &qserrors.SiteError{
				Type:    qserrors.ErrorTypeValidation,
				Code:    qserrors.ErrCodeInvalidJSON,
				Message: "invalid translation file for " + lang,
				Cause:   err,
			}
		}
	}

	s.mu.Lock()
	s.catalogs[lang] = c
	s.mu.Unlock()
	return c, nil
}

// Translator returns a translator for lang that falls back to fallback.
func (s *Store) Translator(lang, fallback string) (*MapTranslator, error) {
	primary, err := s.Catalog(lang)
	if err != nil {
		return nil, err
	}
	t := &MapTranslator{Primary: primary}
	if fallback != "" && fallback != lang {
		if t.Fallback, err = s.Catalog(fallback); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Languages lists the languages that have a catalog file, sorted.
func (s *Store) Languages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "list translations", err)
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		lang := strings.TrimSuffix(name, ".json")
		if _, err := language.Parse(lang); err == nil {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs, nil
}
