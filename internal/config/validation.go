package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/conneroisu/quicksite/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		writeIssues(&builder, vr.Errors)
		builder.WriteString("\n")
	}
	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		writeIssues(&builder, vr.Warnings)
	}
	return builder.String()
}

func writeIssues(b *strings.Builder, issues []ValidationError) {
	for _, issue := range issues {
		fmt.Fprintf(b, "  - %s: %s\n", issue.Field, issue.Message)
		for _, suggestion := range issue.Suggestions {
			fmt.Fprintf(b, "      hint: %s\n", suggestion)
		}
	}
}

// ValidateConfigWithDetails checks the relations between settings that
// struct tags cannot express and collects warnings for risky values.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateProjectConfigDetails(&config.Project, result)
	validateSiteConfigDetails(&config.Site, result)
	validateRenderConfigDetails(&config.Render, result)
	validateServerConfigDetails(&config.Server, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateProjectConfigDetails(config *ProjectConfig, result *ValidationResult) {
	if config.Root != "" && !pathExists(config.Root) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "project.root",
			Value:   config.Root,
			Message: "project root does not exist",
			Suggestions: []string{
				"Run 'quicksite init' to create the project layout",
			},
		})
	}
	if config.HistoryLimit < 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "project.history_limit",
			Value:   config.HistoryLimit,
			Message: "undo history is disabled",
		})
	}
}

func validateSiteConfigDetails(config *SiteConfig, result *ValidationResult) {
	if err := validation.ValidateBaseURL(config.BaseURL); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "site.base_url",
			Value:   config.BaseURL,
			Message: err.Error(),
			Suggestions: []string{
				"Use '/' to serve the site from the domain root",
				"Use an absolute http(s) URL such as https://example.com/",
			},
		})
	}

	if !config.Multilingual {
		if len(config.Languages) > 1 {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "site.languages",
				Value:   config.Languages,
				Message: "languages are listed but multilingual is disabled",
				Suggestions: []string{
					"Set site.multilingual to true to prefix URLs with the language",
				},
			})
		}
		return
	}

	if !contains(config.Languages, config.DefaultLang) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "site.default_lang",
			Value:   config.DefaultLang,
			Message: "default language is not one of site.languages",
			Suggestions: []string{
				"Available languages: " + strings.Join(config.Languages, ", "),
			},
		})
	}
	if config.FallbackLang != "" && !contains(config.Languages, config.FallbackLang) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "site.fallback_lang",
			Value:   config.FallbackLang,
			Message: "fallback language is not one of site.languages",
		})
	}
}

func validateRenderConfigDetails(config *RenderConfig, result *ValidationResult) {
	for _, tag := range config.AllowedTags {
		switch {
		case !validation.IsValidTagName(tag):
			result.Errors = append(result.Errors, ValidationError{
				Field:   "render.allowed_tags",
				Value:   tag,
				Message: fmt.Sprintf("invalid tag name %q", tag),
			})
		case validation.IsDeniedTag(tag):
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "render.allowed_tags",
				Value:   tag,
				Message: fmt.Sprintf("%q is always blocked and will never render", tag),
				Suggestions: []string{
					"Blocked tags: " + strings.Join(validation.DeniedTags(), ", "),
				},
			})
		}
	}
	if config.MaxComponentDepth > 64 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "render.max_component_depth",
			Value:   config.MaxComponentDepth,
			Message: "deep component nesting makes cycles slow to detect",
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateBaseURL(origin); err != nil || strings.HasPrefix(origin, "/") {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: fmt.Sprintf("origin %q must be an absolute http(s) URL", origin),
			})
		}
	}

	if config.Editor && config.Host != "" && config.Host != "localhost" && !isLoopback(config.Host) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.editor",
			Value:   config.Host,
			Message: "the structure edit API is exposed beyond localhost",
			Suggestions: []string{
				"Bind to localhost when editing is enabled",
			},
		})
	}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
