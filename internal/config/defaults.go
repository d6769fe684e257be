package config

import "strings"

// Defaults.
const (
	DefaultContentDir   = "content"
	DefaultTemplatesDir = "templates"
	DefaultStaticDir    = "static"
	DefaultOutputDir    = "output"

	DefaultTemplateName = "default.html"
	DefaultPolicy       = "lenient"
	DefaultFormat       = "json"
	DefaultConcurrency  = 1
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultInterval     = "5m"
	DefaultListen       = "127.0.0.1:9090"
	DefaultSubject      = "sitegen.builds"
	DefaultSiteTitle    = "Site"
)

// ApplyDefaults fills unset fields and normalises enumerations.
func (c *Config) ApplyDefaults() {
	if c.Paths.Content == "" {
		c.Paths.Content = DefaultContentDir
	}
	if c.Paths.Templates == "" {
		c.Paths.Templates = DefaultTemplatesDir
	}
	if c.Paths.Output == "" {
		c.Paths.Output = DefaultOutputDir
	}

	if c.Site.Title == "" {
		c.Site.Title = DefaultSiteTitle
	}

	c.Metadata.Policy = lowerOr(c.Metadata.Policy, DefaultPolicy)
	c.Metadata.Format = lowerOr(c.Metadata.Format, DefaultFormat)

	if c.Build.Concurrency == 0 {
		c.Build.Concurrency = DefaultConcurrency
	}

	c.Logging.Level = lowerOr(c.Logging.Level, DefaultLogLevel)
	c.Logging.Format = lowerOr(c.Logging.Format, DefaultLogFormat)

	if c.Daemon.Interval == "" {
		c.Daemon.Interval = DefaultInterval
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = DefaultListen
	}

	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		c.Events.Subject = DefaultSubject
	}
}

func lowerOr(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}
