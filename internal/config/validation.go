package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// MinInterval bounds how often the daemon may rebuild.
const MinInterval = time.Second

// Validate checks every setting and returns the first problem as a fatal
// validation error.
func (c *Config) Validate() error {
	if _, err := frontmatter.ParsePolicy(c.Metadata.Policy); err != nil {
		return serrors.ValidationFailed("metadata.policy", err.Error())
	}
	if _, err := frontmatter.ParseFormat(c.Metadata.Format); err != nil {
		return serrors.ValidationFailed("metadata.format", err.Error())
	}
	for _, k := range c.Metadata.Required {
		if strings.TrimSpace(k) == "" {
			return serrors.ValidationFailed("metadata.required", "empty key")
		}
	}

	if name := c.DefaultTemplate(); name != "" {
		clean := path.Clean(strings.TrimPrefix(name, "/"))
		if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
			return serrors.ValidationFailed("templates.default", fmt.Sprintf("%q escapes the template root", name))
		}
	}

	if c.Build.Concurrency < 1 {
		return serrors.ValidationFailed("build.concurrency", fmt.Sprintf("must be at least 1, got %d", c.Build.Concurrency))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return serrors.ValidationFailed("logging.level", fmt.Sprintf("unsupported level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return serrors.ValidationFailed("logging.format", fmt.Sprintf("unsupported format %q", c.Logging.Format))
	}

	if _, err := c.RebuildInterval(); err != nil {
		return err
	}
	if c.Daemon.Listen == "" {
		return serrors.ValidationFailed("daemon.listen", "address required")
	}
	if _, err := c.RetryPolicy(); err != nil {
		return err
	}
	return nil
}

// RetryPolicy builds the event publish backoff from events.retry.
func (c *Config) RetryPolicy() (retry.Policy, error) {
	r := c.Events.Retry
	mode, err := retry.ParseMode(r.Backoff)
	if err != nil {
		return retry.Policy{}, serrors.ValidationFailed("events.retry.backoff", err.Error())
	}
	initial, err := optionalDuration("events.retry.initial", r.Initial)
	if err != nil {
		return retry.Policy{}, err
	}
	maxDelay, err := optionalDuration("events.retry.max", r.Max)
	if err != nil {
		return retry.Policy{}, err
	}
	retries := -1
	if r.MaxRetries != nil {
		if *r.MaxRetries < 0 {
			return retry.Policy{}, serrors.ValidationFailed("events.retry.max_retries", "cannot be negative")
		}
		retries = *r.MaxRetries
	}
	return retry.NewPolicy(mode, initial, maxDelay, retries), nil
}

func optionalDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, serrors.ValidationFailed(field, err.Error())
	}
	if d <= 0 {
		return 0, serrors.ValidationFailed(field, "must be positive")
	}
	return d, nil
}

// RebuildInterval parses daemon.interval.
func (c *Config) RebuildInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Daemon.Interval)
	if err != nil {
		return 0, serrors.ValidationFailed("daemon.interval", err.Error())
	}
	if d < MinInterval {
		return 0, serrors.ValidationFailed("daemon.interval", fmt.Sprintf("must be at least %s", MinInterval))
	}
	return d, nil
}
