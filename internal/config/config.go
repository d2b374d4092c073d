// Package config loads quicksite configuration with Viper from the
// .quicksite.yml file, QUICKSITE_ environment variables and command-line
// flags, applies defaults and validates the result.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/conneroisu/quicksite/internal/logging"
)

// Defaults.
const (
	DefaultPort              = 8080
	DefaultHost              = "localhost"
	DefaultLang              = "en"
	DefaultBaseURL           = "/"
	DefaultMaxComponentDepth = 32
	DefaultHistoryLimit      = 50
	DefaultDebounce          = 150 * time.Millisecond
)

type Config struct {
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	Site    SiteConfig    `mapstructure:"site" yaml:"site"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type ProjectConfig struct {
	Root         string `mapstructure:"root" yaml:"root" validate:"required"`
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit" validate:"gte=-1,lte=10000"`
}

type SiteConfig struct {
	BaseURL      string   `mapstructure:"base_url" yaml:"base_url" validate:"required"`
	DefaultLang  string   `mapstructure:"default_lang" yaml:"default_lang" validate:"required,langtag"`
	FallbackLang string   `mapstructure:"fallback_lang" yaml:"fallback_lang" validate:"omitempty,langtag"`
	Multilingual bool     `mapstructure:"multilingual" yaml:"multilingual"`
	Languages    []string `mapstructure:"languages" yaml:"languages" validate:"dive,langtag"`
}

type RenderConfig struct {
	EditorMode        bool     `mapstructure:"editor_mode" yaml:"editor_mode"`
	MaxComponentDepth int      `mapstructure:"max_component_depth" yaml:"max_component_depth" validate:"min=1,max=256"`
	AllowedTags       []string `mapstructure:"allowed_tags" yaml:"allowed_tags"`
	Minify            bool     `mapstructure:"minify" yaml:"minify"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
	Host           string        `mapstructure:"host" yaml:"host"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Debounce       time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
	Editor         bool          `mapstructure:"editor" yaml:"editor"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "QUICKSITE"

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

var validate = newValidator()

// ConfigureEnv makes v read QUICKSITE_SECTION_KEY environment variables.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
		_, err := language.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// SetDefaults registers defaults on v so unset keys still unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project.root", ".")
	v.SetDefault("project.history_limit", DefaultHistoryLimit)
	v.SetDefault("site.base_url", DefaultBaseURL)
	v.SetDefault("site.default_lang", DefaultLang)
	v.SetDefault("site.multilingual", false)
	v.SetDefault("render.editor_mode", false)
	v.SetDefault("render.max_component_depth", DefaultMaxComponentDepth)
	v.SetDefault("render.minify", false)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.debounce", DefaultDebounce)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Slices set from env or flags arrive as comma separated strings.
	if v.IsSet("site.languages") && len(config.Site.Languages) == 0 {
		config.Site.Languages = v.GetStringSlice("site.languages")
	}
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("render.allowed_tags") && len(config.Render.AllowedTags) == 0 {
		config.Render.AllowedTags = v.GetStringSlice("render.allowed_tags")
	}

	config.normalize()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// normalize canonicalises language tags and fills derived values.
func (c *Config) normalize() {
	c.Site.DefaultLang = canonicalLang(c.Site.DefaultLang)
	c.Site.FallbackLang = canonicalLang(c.Site.FallbackLang)
	for i, lang := range c.Site.Languages {
		c.Site.Languages[i] = canonicalLang(lang)
	}
	if c.Site.Multilingual && len(c.Site.Languages) == 0 {
		c.Site.Languages = []string{c.Site.DefaultLang}
	}
	for i, tag := range c.Render.AllowedTags {
		c.Render.AllowedTags[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

func canonicalLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// validateConfig validates configuration values for security and correctness.
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return describeValidation(err)
	}
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return &first
	}
	return nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := fieldPath(e.Namespace())
	var msg string
	switch e.Tag() {
	case "required":
		msg = "is required"
	case "langtag":
		msg = fmt.Sprintf("%q is not a valid language tag", e.Value())
	case "oneof":
		msg = "must be one of: " + e.Param()
	case "min", "gte":
		msg = "must be at least " + e.Param()
	case "max", "lte":
		msg = "must be at most " + e.Param()
	default:
		msg = "is invalid"
	}
	return &ValidationError{Field: field, Value: e.Value(), Message: msg}
}

// fieldPath turns "Config.Site.DefaultLang" into "site.defaultlang".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// LoggerConfig builds the logger configuration writing to out.
func (c *Config) LoggerConfig(out io.Writer) *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Logging.Format
	if out != nil {
		cfg.Output = out
	}
	return cfg
}

// Address returns host:port for the preview server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
