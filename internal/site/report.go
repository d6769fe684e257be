package site

import (
	"errors"
	"fmt"
	"time"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// PageResult is the outcome of one document. Err is nil for written pages.
type PageResult struct {
	Source      string        `json:"source"`
	Output      string        `json:"output,omitempty"`
	Template    string        `json:"template,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Kind        serrors.Kind  `json:"kind,omitempty"`
	Stage       page.Stage    `json:"stage,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Err         error         `json:"-"`
}

// OK reports whether the page was written.
func (p PageResult) OK() bool { return p.Err == nil }

func failedResult(rel string, err error) PageResult {
	res := PageResult{Source: rel, Err: err, Kind: serrors.KindOf(err), Reason: err.Error()}
	if res.Kind == "" {
		res.Kind = serrors.KindPageRender
	}
	var re *page.RenderError
	if errors.As(err, &re) {
		res.Stage = re.Stage
	}
	return res
}

// Report summarises one build. It is returned to the caller and logged; it
// is never written to disk.
type Report struct {
	BuildID     string                    `json:"build_id"`
	Start       time.Time                 `json:"start"`
	End         time.Time                 `json:"end"`
	Pages       []PageResult              `json:"pages"`
	StaticDir   string                    `json:"static_dir,omitempty"`
	StaticFiles int                       `json:"static_files"`
	Fatal       bool                      `json:"fatal"`
	FatalReason string                    `json:"fatal_reason,omitempty"`
	Outcome     metrics.BuildOutcomeLabel `json:"outcome"`
}

func newReport(buildID string, start time.Time) *Report {
	return &Report{BuildID: buildID, Start: start}
}

// Written returns the number of pages written.
func (r *Report) Written() int {
	n := 0
	for _, p := range r.Pages {
		if p.OK() {
			n++
		}
	}
	return n
}

// Failures returns the results of every document that was not written.
func (r *Report) Failures() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if !p.OK() {
			out = append(out, p)
		}
	}
	return out
}

// Failed returns the number of documents that were not written.
func (r *Report) Failed() int { return len(r.Pages) - r.Written() }

// Duration returns the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s documents=%d written=%d failed=%d static=%d duration=%s outcome=%s",
		r.BuildID, len(r.Pages), r.Written(), r.Failed(), r.StaticFiles,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// finish stamps the end time and derives the outcome.
func (r *Report) finish(end time.Time) {
	r.End = end
	switch {
	case r.Fatal:
		r.Outcome = metrics.BuildOutcomeFailed
	case r.canceled():
		r.Outcome = metrics.BuildOutcomeCanceled
	case r.Failed() > 0:
		r.Outcome = metrics.BuildOutcomeWarning
	default:
		r.Outcome = metrics.BuildOutcomeSuccess
	}
}

func (r *Report) canceled() bool {
	for _, p := range r.Pages {
		if p.Kind == serrors.KindCanceled {
			return true
		}
	}
	return false
}
