// Package daemon rebuilds the site on a fixed interval and serves build
// status over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context) (*site.Report, error)

// Options configures a Daemon.
type Options struct {
	Interval time.Duration
	Listen   string
	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
}

// Daemon owns the scheduler and the status server.
type Daemon struct {
	opts      Options
	build     BuildFunc
	scheduler *Scheduler
	startedAt time.Time

	building atomic.Bool
	mu       sync.RWMutex
	last     *site.Report
	lastErr  error
	builds   int
}

// New creates a daemon that runs build every opts.Interval.
func New(opts Options, build BuildFunc) (*Daemon, error) {
	if build == nil {
		return nil, serrors.New(serrors.CategoryDaemon, serrors.SeverityFatal, "build function required")
	}
	if opts.Interval <= 0 {
		return nil, serrors.ValidationFailed("daemon.interval", "must be positive")
	}
	s, err := NewScheduler()
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryDaemon, serrors.SeverityFatal, "scheduler init failed")
	}
	return &Daemon{opts: opts, build: build, scheduler: s, startedAt: time.Now()}, nil
}

// Run builds once, then keeps rebuilding and serving until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.opts.Listen)
	if err != nil {
		_ = d.scheduler.Stop()
		return serrors.Wrap(err, serrors.CategoryDaemon, serrors.SeverityFatal, "failed to bind status listener").
			WithContext("listen", d.opts.Listen)
	}
	return d.Serve(ctx, ln)
}

// Serve is Run with a pre-bound listener.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Status server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	d.RunOnce(ctx)

	if _, err := d.scheduler.SchedulePeriodicBuild(ctx, d.opts.Interval, d.RunOnce); err != nil {
		d.shutdown(srv)
		return serrors.Wrap(err, serrors.CategoryDaemon, serrors.SeverityFatal, "failed to schedule builds")
	}
	d.scheduler.Start()
	slog.Info("Daemon started", "interval", d.opts.Interval.String())

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok && err != nil {
			runErr = serrors.Wrap(err, serrors.CategoryDaemon, serrors.SeverityFatal, "status server failed")
		}
	}

	if err := d.scheduler.Stop(); err != nil {
		slog.Warn("Failed to stop scheduler", logfields.Error(err))
	}
	d.shutdown(srv)
	slog.Info("Daemon stopped", logfields.Count(d.Builds()))
	return runErr
}

func (d *Daemon) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Status server shutdown failed", logfields.Error(err))
	}
}

// RunOnce runs a build unless one is already in progress.
func (d *Daemon) RunOnce(ctx context.Context) {
	if !d.building.CompareAndSwap(false, true) {
		slog.Info("Build already running, skipping tick")
		return
	}
	defer d.building.Store(false)

	if ctx.Err() != nil {
		return
	}

	report, err := d.build(ctx)
	d.mu.Lock()
	d.builds++
	if report != nil {
		d.last = report
	}
	d.lastErr = err
	d.mu.Unlock()

	if err != nil {
		slog.Error("Scheduled build failed", logfields.Error(err))
	}
}

// LastReport returns the most recent build report, if any.
func (d *Daemon) LastReport() (*site.Report, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last, d.lastErr
}

// Builds returns the number of builds run so far.
func (d *Daemon) Builds() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.builds
}

// String implements fmt.Stringer.
func (d *Daemon) String() string {
	return fmt.Sprintf("daemon(interval=%s listen=%s)", d.opts.Interval, d.opts.Listen)
}
