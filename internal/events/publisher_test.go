package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/retry"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
	closed   bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.subject = subject
	c.data = data
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error { return c.flushErr }
func (c *fakeConn) Close()                                 { c.closed = true }

func testReport(t *testing.T) *site.Report {
	t.Helper()
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &site.Report{
		BuildID:     "b-1",
		Start:       start,
		End:         start.Add(250 * time.Millisecond),
		StaticFiles: 3,
		Outcome:     "warning",
		Pages: []site.PageResult{
			{Source: "index.md", Output: "index.html"},
			{Source: "bad.md", Kind: "MetadataDecodeError", Stage: "metadata", Reason: "invalid json", Err: errors.New("invalid json")},
		},
	}
	return r
}

func TestPublisher_Notify(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "")
	require.Equal(t, DefaultSubject, p.Subject())

	require.NoError(t, p.Notify(context.Background(), testReport(t)))
	assert.Equal(t, DefaultSubject, conn.subject)

	var ev BuildEvent
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, "b-1", ev.BuildID)
	assert.Equal(t, "warning", ev.Outcome)
	assert.Equal(t, int64(250), ev.DurationMS)
	assert.Equal(t, 2, ev.Documents)
	assert.Equal(t, 1, ev.Written)
	assert.Equal(t, 1, ev.Failed)
	assert.Equal(t, 3, ev.StaticFiles)
	require.Len(t, ev.Failures, 1)
	assert.Equal(t, Failure{Source: "bad.md", Kind: "MetadataDecodeError", Stage: "metadata", Reason: "invalid json"}, ev.Failures[0])
}

func TestPublisher_Errors(t *testing.T) {
	noRetry := retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 0)

	p := NewPublisher(&fakeConn{pubErr: errors.New("no server")}, "custom").WithRetry(noRetry)
	err := p.Notify(context.Background(), testReport(t))
	require.ErrorContains(t, err, "no server")

	p = NewPublisher(&fakeConn{flushErr: context.DeadlineExceeded}, "custom").WithRetry(noRetry)
	err = p.Notify(context.Background(), testReport(t))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type flakyConn struct {
	fakeConn
	failures int
	attempts int
}

func (c *flakyConn) Publish(subject string, data []byte) error {
	c.attempts++
	if c.attempts <= c.failures {
		return errors.New("reconnecting")
	}
	return c.fakeConn.Publish(subject, data)
}

func TestPublisher_RetriesTransientFailures(t *testing.T) {
	conn := &flakyConn{failures: 2}
	p := NewPublisher(conn, "s").WithRetry(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 3))

	require.NoError(t, p.Notify(context.Background(), testReport(t)))
	assert.Equal(t, 3, conn.attempts)
	assert.NotEmpty(t, conn.data)
}

func TestPublisher_Close(t *testing.T) {
	conn := &fakeConn{}
	NewPublisher(conn, "x").Close()
	assert.True(t, conn.closed)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "x")
	require.Error(t, err)
}
