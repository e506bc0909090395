package config

import (
	"path/filepath"
	"time"

	"golang.org/x/text/language"
)

// Config represents the application configuration loaded from book.yaml.
type Config struct {
	Book      BookConfig      `yaml:"book"`
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	Preview   PreviewConfig   `yaml:"preview"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ResolvePaths anchors the relative source and output directories at base,
// usually the config file's directory, so commands behave the same from
// any working directory. Fallback stays relative to Src.
func (c *Config) ResolvePaths(base string) {
	if !filepath.IsAbs(c.Book.Src) {
		c.Book.Src = filepath.Join(base, c.Book.Src)
	}
	if !filepath.IsAbs(c.Output.Directory) {
		c.Output.Directory = filepath.Join(base, c.Output.Directory)
	}
}

// BookConfig describes the book and where its sources live.
type BookConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Authors     []string `yaml:"authors,omitempty"`
	// Language is a BCP-47 tag; it ends up on the <html lang> attribute.
	Language string `yaml:"language,omitempty"`
	// Src is the directory holding the page sources, relative to the
	// config file.
	Src string `yaml:"src,omitempty"`
	// Fallback names a sibling source tree (relative to Src) that holds
	// default-language pages; links to pages missing from Src resolve
	// into it. Empty disables fallback resolution.
	Fallback string `yaml:"fallback,omitempty"`
}

// LanguageTag returns the parsed language, falling back to English for
// values Validate would have rejected.
func (b BookConfig) LanguageTag() language.Tag {
	tag, err := language.Parse(b.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// RenderConfig holds the markdown rendering knobs.
type RenderConfig struct {
	CurlyQuotes    bool   `yaml:"curly_quotes"`
	Highlight      bool   `yaml:"highlight"`
	HighlightStyle string `yaml:"highlight_style,omitempty"`
	SanitizeHTML   bool   `yaml:"sanitize_html"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// Resync is an optional interval ("5m") for periodic full rebuilds
	// while serving, catching changes the watcher missed. Empty or "0"
	// disables it.
	Resync string `yaml:"resync,omitempty"`
}

// ResyncInterval parses Resync; zero means disabled.
func (p PreviewConfig) ResyncInterval() time.Duration {
	if p.Resync == "" || p.Resync == "0" {
		return 0
	}
	d, err := time.ParseDuration(p.Resync)
	if err != nil {
		return 0
	}
	return d
}

// LinkCheckConfig configures the check command.
type LinkCheckConfig struct {
	// External enables HTTP probes of scheme-qualified destinations.
	External bool   `yaml:"external"`
	Timeout  string `yaml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, defaulting to 10s.
func (l LinkCheckConfig) TimeoutDuration() time.Duration {
	if l.Timeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint on the preview server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}
