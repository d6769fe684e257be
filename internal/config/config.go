// Package config loads the sitegen.yaml project file.
//
// Every setting has a default, so a project without a config file builds
// with the conventional layout (content/, templates/, static/, output/).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = "sitegen.yaml"

// Config is the project configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Site      SiteConfig      `yaml:"site"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Templates TemplatesConfig `yaml:"templates"`
	Markdown  MarkdownConfig  `yaml:"markdown"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Events    EventsConfig    `yaml:"events"`
}

// PathsConfig names the project directories, relative to the project root
// unless absolute.
type PathsConfig struct {
	Content   string `yaml:"content,omitempty"`
	Templates string `yaml:"templates,omitempty"`
	// Static is optional; when unset, a "static" directory is used if it
	// exists.
	Static string `yaml:"static,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// SiteConfig seeds the site key of every page context.
type SiteConfig struct {
	Title   string         `yaml:"title,omitempty"`
	BaseURL string         `yaml:"base_url,omitempty"`
	Params  map[string]any `yaml:"params,omitempty"`
}

// MetadataConfig selects how metadata blocks are read.
type MetadataConfig struct {
	// Policy is "lenient" (missing block allowed) or "strict".
	Policy string `yaml:"policy,omitempty"`
	// Format is the payload syntax, "json" or "yaml".
	Format string `yaml:"format,omitempty"`
	// Required lists keys every document must set.
	Required []string `yaml:"required,omitempty"`
}

// TemplatesConfig controls template resolution.
type TemplatesConfig struct {
	// Default is used for documents that name no template. Set it to the
	// empty string to make such documents fail.
	Default *string `yaml:"default,omitempty"`
	// StrictVariables turns references to undefined keys into errors.
	StrictVariables bool `yaml:"strict_variables,omitempty"`
}

// MarkdownConfig toggles markdown extensions.
type MarkdownConfig struct {
	GFM bool `yaml:"gfm,omitempty"`
}

// BuildConfig tunes the build.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DaemonConfig configures `sitegen daemon`.
type DaemonConfig struct {
	Interval string `yaml:"interval,omitempty"`
	Listen   string `yaml:"listen,omitempty"`
}

// EventsConfig enables build notifications on NATS.
type EventsConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig is the backoff for failed event publishes.
type RetryConfig struct {
	// Backoff is "fixed", "linear" or "exponential".
	Backoff    string `yaml:"backoff,omitempty"`
	Initial    string `yaml:"initial,omitempty"`
	Max        string `yaml:"max,omitempty"`
	MaxRetries *int   `yaml:"max_retries,omitempty"`
}

// DefaultTemplate returns the effective default template name.
func (c *Config) DefaultTemplate() string {
	if c.Templates.Default == nil {
		return DefaultTemplateName
	}
	return *c.Templates.Default
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads, expands and decodes the config file at path and applies
// defaults. Environment files next to the config are loaded first, so
// ${VAR} references can use them.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, serrors.ConfigNotFound(path)
	}

	loadEnvFiles(path)

	// #nosec G304 -- path is the operator-supplied config file.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.ConfigInvalid(fmt.Errorf("failed to read config file: %w", err))
	}

	cfg, err := Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		return nil, serrors.ConfigInvalid(err).WithContext("path", path)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists. A missing file yields the
// defaults unless required is set.
func LoadOrDefault(path string, required bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes a YAML document and applies defaults. Unknown keys are
// rejected.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
