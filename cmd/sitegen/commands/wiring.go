package commands

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/events"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/gitinfo"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/retry"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// builderOptions translates the validated configuration into build
// policies.
func builderOptions(cfg *config.Config, paths config.Paths) site.Options {
	policy, _ := frontmatter.ParsePolicy(cfg.Metadata.Policy)
	format, _ := frontmatter.ParseFormat(cfg.Metadata.Format)
	return site.Options{
		Metadata: frontmatter.Extractor{
			Policy:   policy,
			Format:   format,
			Required: cfg.Metadata.Required,
		},
		DefaultTemplate: cfg.DefaultTemplate(),
		StrictVariables: cfg.Templates.StrictVariables,
		Markdown:        markdown.Options{GFM: cfg.Markdown.GFM},
		Defaults:        map[string]any{"site": siteDefaults(cfg, paths)},
		Concurrency:     cfg.Build.Concurrency,
	}
}

// siteDefaults is the site key of every page context. The commit entry is
// present only when the content directory is inside a git repository.
func siteDefaults(cfg *config.Config, paths config.Paths) map[string]any {
	params := cfg.Site.Params
	if params == nil {
		params = map[string]any{}
	}
	s := map[string]any{
		"title":    cfg.Site.Title,
		"base_url": cfg.Site.BaseURL,
		"params":   params,
	}
	rev, err := gitinfo.Head(paths.Content)
	switch {
	case err == nil:
		s["commit"] = rev.AsMap()
	case errors.Is(err, gitinfo.ErrNotRepository):
		slog.Debug("Content is not in a git repository; site.commit unset", logfields.Path(paths.Content))
	default:
		slog.Warn("Failed to read content revision", logfields.Path(paths.Content), logfields.Error(err))
	}
	return s
}

// newNotifier connects the NATS publisher when events are configured. A
// connection failure only disables notifications.
func newNotifier(cfg *config.Config) (site.Notifier, func()) {
	if cfg.Events.NATSURL == "" {
		return nil, func() {}
	}
	policy, err := cfg.RetryPolicy()
	if err != nil {
		slog.Warn("Invalid event retry policy, using defaults", logfields.Error(err))
		policy = retry.DefaultPolicy()
	}
	p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.Error(err))
		return nil, func() {}
	}
	return p.WithRetry(policy), p.Close
}

// runBuild builds the site once with a freshly wired builder.
func runBuild(ctx context.Context, cfg *config.Config, paths config.Paths, rec metrics.Recorder, n site.Notifier) (*site.Report, error) {
	b := site.NewBuilder(builderOptions(cfg, paths)).WithRecorder(rec)
	if n != nil {
		b = b.WithNotifier(n)
	}
	return b.Build(ctx, site.Request{
		ContentRoot:  paths.Content,
		TemplateRoot: paths.Templates,
		StaticRoot:   paths.Static,
		OutputRoot:   paths.Output,
	})
}
