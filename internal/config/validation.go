package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/text/language"
)

// validateConfig validates the complete configuration structure.
func validateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateBook(); err != nil {
		return err
	}
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validateRender(); err != nil {
		return err
	}
	if err := cv.validatePreview(); err != nil {
		return err
	}
	return cv.validateLinkCheck()
}

// validateBook checks book metadata.
func (cv *configurationValidator) validateBook() error {
	book := cv.config.Book
	if strings.TrimSpace(book.Title) == "" {
		return errors.New("book.title must not be empty")
	}
	if _, err := language.Parse(book.Language); err != nil {
		return fmt.Errorf("book.language %q is not a valid BCP-47 tag: %w", book.Language, err)
	}
	return nil
}

// validatePaths checks source and output directory settings.
func (cv *configurationValidator) validatePaths() error {
	src := cv.config.Book.Src
	out := cv.config.Output.Directory

	if src == "" {
		return errors.New("book.src must not be empty")
	}
	if out == "" {
		return errors.New("output.directory must not be empty")
	}
	if filepath.Clean(src) == filepath.Clean(out) {
		return fmt.Errorf("output.directory %q must differ from book.src", out)
	}

	if cv.config.Book.Fallback != "" {
		if filepath.IsAbs(cv.config.Book.Fallback) {
			return fmt.Errorf("book.fallback %q must be relative to book.src", cv.config.Book.Fallback)
		}
	}
	return nil
}

// validateRender checks renderer options against what the renderer supports.
func (cv *configurationValidator) validateRender() error {
	r := cv.config.Render
	if !r.Highlight {
		return nil
	}
	if _, ok := styles.Registry[r.HighlightStyle]; !ok {
		return fmt.Errorf("render.highlight_style %q is not a known chroma style", r.HighlightStyle)
	}
	return nil
}

// validatePreview checks the preview server settings.
func (cv *configurationValidator) validatePreview() error {
	p := cv.config.Preview
	if !strings.Contains(p.Addr, ":") {
		return fmt.Errorf("preview.addr %q must be host:port", p.Addr)
	}
	if p.Resync != "" && p.Resync != "0" {
		d, err := time.ParseDuration(p.Resync)
		if err != nil {
			return fmt.Errorf("preview.resync %q is not a duration: %w", p.Resync, err)
		}
		if d < time.Second {
			return fmt.Errorf("preview.resync %q is below the one second minimum", p.Resync)
		}
	}
	return nil
}

// validateLinkCheck checks link checker settings.
func (cv *configurationValidator) validateLinkCheck() error {
	l := cv.config.LinkCheck
	if l.Timeout != "" {
		d, err := time.ParseDuration(l.Timeout)
		if err != nil {
			return fmt.Errorf("linkcheck.timeout %q is not a duration: %w", l.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("linkcheck.timeout must be positive, got %q", l.Timeout)
		}
	}
	return nil
}
