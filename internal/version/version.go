// Package version reports build metadata stamped with -ldflags or read from
// the module build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/conneroisu/quicksite/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// GetBuildInfo returns the build information of the running binary.
func GetBuildInfo() *BuildInfo {
	settings := vcsSettings()
	return &BuildInfo{
		Version:   resolveVersion(Version, settings),
		GitCommit: resolveCommit(GitCommit, settings),
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     settings["vcs.modified"] == "true",
	}
}

// GetShortVersion returns a one-line version for banners and health checks.
func GetShortVersion() string {
	return GetBuildInfo().Short()
}

// Short formats the version with an abbreviated commit.
func (b *BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 {
		return b.Version
	}
	commit := b.GitCommit[:7]
	if strings.HasPrefix(b.Version, "dev") {
		return "dev-" + commit
	}
	return fmt.Sprintf("%s (%s)", b.Version, commit)
}

// Detailed formats every known field, one per line.
func (b *BuildInfo) Detailed() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := "Commit: " + b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		lines = append(lines, commit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	return strings.Join(lines, "\n")
}

// IsRelease reports whether the binary was stamped with a release version.
func (b *BuildInfo) IsRelease() bool {
	return !strings.HasPrefix(b.Version, "dev")
}

func vcsSettings() map[string]string {
	out := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			out[s.Key] = s.Value
		}
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		out["main.version"] = v
	}
	return out
}

func resolveVersion(stamped string, settings map[string]string) string {
	if stamped != "" && stamped != "dev" {
		return stamped
	}
	if v := settings["main.version"]; v != "" {
		return v
	}
	if rev := settings["vcs.revision"]; len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

func resolveCommit(stamped string, settings map[string]string) string {
	if stamped != "" && stamped != "unknown" {
		return stamped
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return rev
	}
	return "unknown"
}

// parseBuildTime accepts RFC3339 and the common variants without a zone.
// Anything else yields the zero time.
func parseBuildTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
