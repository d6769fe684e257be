// Package events publishes build summaries to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitegen/internal/retry"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitegen.builds"

// Failure describes one document that was not written.
type Failure struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason"`
}

// BuildEvent is the JSON payload published after each build.
type BuildEvent struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMS  int64     `json:"duration_ms"`
	Documents   int       `json:"documents"`
	Written     int       `json:"written"`
	Failed      int       `json:"failed"`
	StaticFiles int       `json:"static_files"`
	Fatal       bool      `json:"fatal"`
	FatalReason string    `json:"fatal_reason,omitempty"`
	Failures    []Failure `json:"failures,omitempty"`
}

// NewBuildEvent converts a report into its published form.
func NewBuildEvent(r *site.Report) BuildEvent {
	ev := BuildEvent{
		BuildID:     r.BuildID,
		Outcome:     string(r.Outcome),
		Start:       r.Start.UTC(),
		End:         r.End.UTC(),
		DurationMS:  r.Duration().Milliseconds(),
		Documents:   len(r.Pages),
		Written:     r.Written(),
		Failed:      r.Failed(),
		StaticFiles: r.StaticFiles,
		Fatal:       r.Fatal,
		FatalReason: r.FatalReason,
	}
	for _, f := range r.Failures() {
		ev.Failures = append(ev.Failures, Failure{
			Source: f.Source,
			Kind:   string(f.Kind),
			Stage:  string(f.Stage),
			Reason: f.Reason,
		})
	}
	return ev
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher sends build events. It implements site.Notifier.
type Publisher struct {
	conn    Conn
	subject string
	timeout time.Duration
	retry   retry.Policy
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("sitegen"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", "url", url, "subject", subject)
	return NewPublisher(conn, subject), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject, timeout: 5 * time.Second, retry: retry.DefaultPolicy()}
}

// WithRetry sets the backoff used when publishing fails.
func (p *Publisher) WithRetry(policy retry.Policy) *Publisher {
	p.retry = policy
	return p
}

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string { return p.subject }

// Notify publishes the report summary and waits for the server to
// acknowledge the flush.
func (p *Publisher) Notify(ctx context.Context, r *site.Report) error {
	data, err := json.Marshal(NewBuildEvent(r))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	// A canceled build still gets its event out.
	ctx = context.WithoutCancel(ctx)
	err = p.retry.Do(ctx, func() error {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		fctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		if err := p.conn.FlushWithContext(fctx); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("Published build event", "subject", p.subject, "build_id", r.BuildID, "outcome", r.Outcome)
	return nil
}

// Close closes the underlying connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
