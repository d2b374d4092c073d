// Package testutils builds throwaway quicksite projects for tests.
package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quicksite/internal/config"
	"github.com/conneroisu/quicksite/internal/project"
)

// CreateTempProject creates an empty project layout and returns its root.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dirs := []string{
		filepath.Join(project.StructuresDir, project.PagesDir),
		project.ComponentsDir,
		project.TranslateDir,
	}
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	return root
}

// OpenTestProject creates a project layout and opens it.
func OpenTestProject(t *testing.T) *project.Project {
	t.Helper()
	proj, err := project.Open(CreateTempProject(t), project.Options{})
	require.NoError(t, err)
	return proj
}

// WriteFile writes content under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WritePage writes a page structure.
func WritePage(t *testing.T, root, name, doc string) string {
	t.Helper()
	return WriteFile(t, root, filepath.Join(project.StructuresDir, project.PagesDir, name+project.DocumentExt), doc)
}

// WriteStructure writes the menu or footer structure.
func WriteStructure(t *testing.T, root, kind, doc string) string {
	t.Helper()
	return WriteFile(t, root, filepath.Join(project.StructuresDir, kind+project.DocumentExt), doc)
}

// CreateTestComponent writes a component template.
func CreateTestComponent(t *testing.T, root, name, doc string) string {
	t.Helper()
	return WriteFile(t, root, filepath.Join(project.ComponentsDir, name+project.DocumentExt), doc)
}

// WriteCatalog writes a translation catalog.
func WriteCatalog(t *testing.T, root, lang string, catalog map[string]any) string {
	t.Helper()
	data, err := json.Marshal(catalog)
	require.NoError(t, err)
	return WriteFile(t, root, filepath.Join(project.TranslateDir, lang+".json"), string(data))
}

// CreateTestConfig returns a configuration with defaults for root.
func CreateTestConfig(root string) *config.Config {
	return &config.Config{
		Project: config.ProjectConfig{Root: root, HistoryLimit: config.DefaultHistoryLimit},
		Site: config.SiteConfig{
			BaseURL:     config.DefaultBaseURL,
			DefaultLang: config.DefaultLang,
			Languages:   []string{config.DefaultLang},
		},
		Render: config.RenderConfig{MaxComponentDepth: config.DefaultMaxComponentDepth},
		Server: config.ServerConfig{
			Host:     "localhost",
			Port:     8080,
			Debounce: 20 * time.Millisecond,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// HostileNodes are structures that must never produce live markup.
var HostileNodes = map[string]string{
	"script tag":         `{"tag":"script","children":[{"textKey":"__RAW__alert(1)"}]}`,
	"raw handler":        `{"tag":"a","params":{"onclick":"alert(document.cookie)"}}`,
	"javascript href":    `{"tag":"a","params":{"href":"javascript:alert(1)"}}`,
	"obfuscated scheme":  `{"tag":"a","params":{"href":" java\tscript:alert(1)"}}`,
	"srcdoc":             `{"tag":"iframe","params":{"srcdoc":"<script>x</script>"}}`,
	"attribute breakout": `{"tag":"div","params":{"title":"\"><script>alert(1)</script>"}}`,
	"tag injection":      `{"tag":"img src=x onerror=alert(1)"}`,
	"text injection":     `{"tag":"p","children":[{"textKey":"__RAW__<script>alert(1)</script>"}]}`,
	"css expression":     `{"tag":"div","params":{"style":"width: expression(alert(1))"}}`,
	"blocked call":       `{"tag":"button","params":{"onclick":"{{call:eval:alert(1)}}"}}`,
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// WaitForFileChange waits for a file to be modified.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
