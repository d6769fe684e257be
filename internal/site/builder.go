package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/observability"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

// Stage names reported in logs and metrics.
const (
	StageTemplates = "templates"
	StageOutput    = "output"
	StageStatic    = "static"
	StageDiscover  = "discover"
	StagePages     = "pages"
)

// Request names the four roots of a build. Paths are used as given; callers
// resolve them against the project root beforehand.
type Request struct {
	ContentRoot  string
	TemplateRoot string
	// StaticRoot may be empty, in which case no assets are copied.
	StaticRoot string
	OutputRoot string
}

// Options carries the build policies.
type Options struct {
	Metadata        frontmatter.Extractor
	DefaultTemplate string
	StrictVariables bool
	Markdown        markdown.Options
	// Defaults seed every page context.
	Defaults map[string]any
	// Concurrency is the number of documents rendered in parallel. Values
	// below 2 render sequentially.
	Concurrency int
}

// Notifier is told about every finished build, fatal ones included.
type Notifier interface {
	Notify(ctx context.Context, report *Report) error
}

// Builder runs builds. A Builder holds no per-build state; every Build
// constructs its own template engine.
type Builder struct {
	opts     Options
	recorder metrics.Recorder
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

// NewBuilder creates a Builder with a no-op recorder and the wall clock.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithNotifier sets a notifier called after each build.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithClock replaces the clock. The time read at build start is the
// generation timestamp of every page of that build.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build runs the fatal steps and then renders every document.
//
// A non-nil error is always a fatal *errors.SiteError; the report is
// returned in both cases.
func (b *Builder) Build(ctx context.Context, req Request) (*Report, error) {
	start := b.now()
	report := newReport(b.newID(), start)
	ctx = observability.WithBuildID(ctx, report.BuildID)

	observability.InfoContext(ctx, "Starting build",
		slog.String("content", req.ContentRoot),
		slog.String("templates", req.TemplateRoot),
		slog.String("static", req.StaticRoot),
		logfields.Output(req.OutputRoot))

	var engine *templates.Engine
	if err := b.fatalStep(StageTemplates, func() error {
		e, err := templates.NewEngine(req.TemplateRoot, templates.Options{StrictVariables: b.opts.StrictVariables})
		if err != nil {
			return serrors.TemplateEngineInit(req.TemplateRoot, err)
		}
		engine = e
		observability.DebugContext(ctx, "Templates loaded",
			logfields.Count(len(e.Names())), slog.Any("templates", e.Names()))
		for _, name := range e.Broken() {
			observability.WarnContext(ctx, "Template failed to load; pages using it will be skipped",
				logfields.Template(name), logfields.Error(e.LoadError(name)))
		}
		return nil
	}); err != nil {
		return b.abort(ctx, report, err)
	}

	if err := b.fatalStep(StageOutput, func() error {
		if err := os.MkdirAll(req.OutputRoot, 0o750); err != nil {
			return serrors.OutputDirCreate(req.OutputRoot, err)
		}
		return nil
	}); err != nil {
		return b.abort(ctx, report, err)
	}

	if req.StaticRoot != "" {
		if err := b.fatalStep(StageStatic, func() error {
			dest, n, err := CopyStatic(ctx, req.StaticRoot, req.OutputRoot)
			if err != nil {
				return serrors.StaticCopyFailed(req.StaticRoot, err)
			}
			report.StaticDir = dest
			report.StaticFiles = n
			b.recorder.SetStaticFiles(n)
			return nil
		}); err != nil {
			return b.abort(ctx, report, err)
		}
	}

	var docs []string
	if err := b.fatalStep(StageDiscover, func() error {
		found, err := Discover(req.ContentRoot)
		if err != nil {
			return serrors.DiscoveryFailed(req.ContentRoot, err)
		}
		docs = found
		return nil
	}); err != nil {
		return b.abort(ctx, report, err)
	}

	renderer := page.NewRenderer(engine, markdown.NewRenderer(b.opts.Markdown), page.Config{
		Extractor:       b.opts.Metadata,
		DefaultTemplate: b.opts.DefaultTemplate,
		Defaults:        b.opts.Defaults,
		Generator:       version.Generator(),
		Now:             func() time.Time { return start },
	})

	pagesStart := time.Now()
	report.Pages = b.renderAll(observability.WithStage(ctx, StagePages), renderer, req, docs)
	b.recorder.ObserveStageDuration(StagePages, time.Since(pagesStart))

	b.finish(ctx, report)
	return report, nil
}

// fatalStep times a build step and records its result. The error is
// returned unlogged; the caller reports it once.
func (b *Builder) fatalStep(stage string, fn func() error) error {
	stepStart := time.Now()
	err := fn()
	b.recorder.ObserveStageDuration(stage, time.Since(stepStart))
	if err != nil {
		b.recorder.IncStageResult(stage, metrics.ResultFatal)
		return err
	}
	b.recorder.IncStageResult(stage, metrics.ResultSuccess)
	return nil
}

func (b *Builder) abort(ctx context.Context, report *Report, err error) (*Report, error) {
	report.Fatal = true
	report.FatalReason = err.Error()
	b.finish(ctx, report)
	return report, err
}

func (b *Builder) finish(ctx context.Context, report *Report) {
	report.finish(b.now())
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(report.Outcome)

	if report.Fatal {
		observability.ErrorContext(ctx, "Build aborted", slog.String("summary", report.Summary()))
	} else {
		for _, f := range report.Failures() {
			observability.WarnContext(ctx, "Document skipped",
				logfields.Path(f.Source), logfields.Kind(string(f.Kind)),
				logfields.Stage(string(f.Stage)), slog.String("reason", f.Reason))
		}
		observability.InfoContext(ctx, "Build completed",
			logfields.Count(report.Written()),
			slog.Int("failed", report.Failed()),
			slog.String("summary", report.Summary()))
	}

	if b.notifier != nil {
		if err := b.notifier.Notify(ctx, report); err != nil {
			observability.WarnContext(ctx, "Build notification failed", logfields.Error(err))
		}
	}
}

// renderAll processes docs and returns one result per document, in the
// order of docs.
func (b *Builder) renderAll(ctx context.Context, r *page.Renderer, req Request, docs []string) []PageResult {
	results := make([]PageResult, len(docs))

	if b.opts.Concurrency < 2 {
		for i, rel := range docs {
			if ctx.Err() != nil {
				results[i] = b.canceled(rel, ctx.Err())
				continue
			}
			results[i] = b.renderOne(ctx, r, req, rel)
		}
		return results
	}

	// Workers never return errors: every outcome is a result.
	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for i, rel := range docs {
		if ctx.Err() != nil {
			results[i] = b.canceled(rel, ctx.Err())
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = b.canceled(rel, ctx.Err())
				return nil
			}
			results[i] = b.renderOne(ctx, r, req, rel)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (b *Builder) canceled(rel string, cause error) PageResult {
	b.recorder.IncPageResult(string(serrors.KindCanceled))
	return failedResult(rel, fmt.Errorf("%w: %w", ErrCanceled, cause))
}

// renderOne reads, renders and writes one document.
func (b *Builder) renderOne(ctx context.Context, r *page.Renderer, req Request, rel string) PageResult {
	docStart := time.Now()
	ctx = observability.WithDocument(ctx, rel)

	res := b.processDocument(ctx, r, req, rel)
	res.Duration = time.Since(docStart)

	b.recorder.ObservePageDuration(res.Duration)
	if res.OK() {
		b.recorder.IncPageResult(metrics.PageSuccess)
		observability.InfoContext(ctx, "Page written",
			logfields.Output(res.Output), logfields.Template(res.Template), logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	} else {
		b.recorder.IncPageResult(string(res.Kind))
		observability.ErrorContext(ctx, "Page failed",
			logfields.Kind(string(res.Kind)), logfields.Stage(string(res.Stage)), logfields.Error(res.Err))
	}
	return res
}

func (b *Builder) processDocument(ctx context.Context, r *page.Renderer, req Request, rel string) PageResult {
	outRel := page.OutputPath(rel)
	outPath := filepath.Join(req.OutputRoot, filepath.FromSlash(outRel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return failedResult(rel, &DocumentIOError{Path: outPath, Op: "mkdir", Err: err})
	}

	srcPath := filepath.Join(req.ContentRoot, filepath.FromSlash(rel))
	// #nosec G304 -- srcPath comes from walking the content root.
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return failedResult(rel, &DocumentIOError{Path: srcPath, Op: "read", Err: err})
	}

	rendered, err := r.Render(ctx, page.Document{Path: srcPath, RelPath: rel, Raw: raw})
	if err != nil {
		return failedResult(rel, err)
	}

	if err := atomic.WriteFile(outPath, strings.NewReader(rendered.HTML)); err != nil {
		return failedResult(rel, &DocumentIOError{Path: outPath, Op: "write", Err: err})
	}
	// #nosec G302 -- pages are published content.
	if err := os.Chmod(outPath, 0o644); err != nil {
		return failedResult(rel, &DocumentIOError{Path: outPath, Op: "chmod", Err: err})
	}

	return PageResult{
		Source:      rel,
		Output:      outRel,
		Template:    rendered.Template,
		Fingerprint: rendered.Fingerprint,
	}
}
