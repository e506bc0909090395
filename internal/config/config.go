// Package config loads, defaults, and validates the book.yaml
// configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
)

// DefaultFileName is the config file looked for when none is given.
const DefaultFileName = "book.yaml"

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists. Missing files are fine; existing
	// environment variables are never overridden.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).
			Build()
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration validation failed").
			WithContext("path", configPath).
			Build()
	}

	return &config, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.AlreadyExistsError(
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			Build()
	}

	example := Config{
		Book: BookConfig{
			Title:       "My Book",
			Description: "An example book",
			Authors:     []string{"Author Name"},
			Language:    "en",
			Src:         "src",
		},
		Output: OutputConfig{
			Directory: "book",
			Clean:     true,
		},
		Render: RenderConfig{
			CurlyQuotes:    true,
			Highlight:      true,
			HighlightStyle: "github",
		},
		Preview: PreviewConfig{
			Addr: "localhost:3000",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}

	return nil
}

// loadEnvFiles loads environment variables from the first readable .env
// file. godotenv never overrides variables already set in the process
// environment.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}
