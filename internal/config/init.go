package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Example returns the configuration written by Init.
func Example() *Config {
	def := DefaultTemplateName
	return &Config{
		Paths: PathsConfig{
			Content:   DefaultContentDir,
			Templates: DefaultTemplatesDir,
			Static:    DefaultStaticDir,
			Output:    DefaultOutputDir,
		},
		Site: SiteConfig{
			Title:   "My Site",
			BaseURL: "https://example.com",
			Params:  map[string]any{"description": "Built with sitegen"},
		},
		Metadata: MetadataConfig{
			Policy: DefaultPolicy,
			Format: DefaultFormat,
		},
		Templates: TemplatesConfig{Default: &def},
		Build:     BuildConfig{Concurrency: DefaultConcurrency},
		Logging:   LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Daemon:    DaemonConfig{Interval: DefaultInterval, Listen: DefaultListen},
	}
}

// Init writes the example configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- the config file holds no secrets; ${VAR} references are expanded at load time.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
