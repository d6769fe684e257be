package commands

import (
	"fmt"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Concurrency int `help:"Documents rendered in parallel (overrides build.concurrency)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, paths, err := root.load(g)
	if err != nil {
		return err
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}

	notifier, closeNotifier := newNotifier(cfg)
	defer closeNotifier()

	report, err := runBuild(g.Ctx, cfg, paths, metrics.NoopRecorder{}, notifier)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(g.Stdout, report.Summary())
	for _, f := range report.Failures() {
		_, _ = fmt.Fprintf(g.Stdout, "  skipped %s: %s\n", f.Source, f.Reason)
	}

	if report.Outcome == metrics.BuildOutcomeCanceled {
		return serrors.New(serrors.CategoryBuild, serrors.SeverityFatal, "build canceled")
	}
	return nil
}
