package commands

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitegen/internal/daemon"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval string `help:"Rebuild interval (overrides daemon.interval)"`
	Listen   string `help:"Status listen address (overrides daemon.listen)"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, paths, err := root.load(g)
	if err != nil {
		return err
	}
	if d.Interval != "" {
		cfg.Daemon.Interval = d.Interval
	}
	if d.Listen != "" {
		cfg.Daemon.Listen = d.Listen
	}
	interval, err := cfg.RebuildInterval()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	notifier, closeNotifier := newNotifier(cfg)
	defer closeNotifier()

	dm, err := daemon.New(daemon.Options{
		Interval: interval,
		Listen:   cfg.Daemon.Listen,
		Registry: reg,
	}, func(ctx context.Context) (*site.Report, error) {
		return runBuild(ctx, cfg, paths, rec, notifier)
	})
	if err != nil {
		return err
	}
	return dm.Run(g.Ctx)
}
