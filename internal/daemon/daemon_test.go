package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

func okBuild(calls *atomic.Int32) BuildFunc {
	return func(context.Context) (*site.Report, error) {
		n := calls.Add(1)
		return &site.Report{BuildID: fmt.Sprintf("build-%d", n), Outcome: metrics.BuildOutcomeSuccess}, nil
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Interval: time.Minute}, nil)
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryDaemon))

	_, err = New(Options{}, okBuild(new(atomic.Int32)))
	require.Error(t, err)
}

func TestRunOnce_RecordsReport(t *testing.T) {
	var calls atomic.Int32
	d, err := New(Options{Interval: time.Minute}, okBuild(&calls))
	require.NoError(t, err)

	assert.Equal(t, HealthStatusUnhealthy, d.Health().Status)

	d.RunOnce(context.Background())
	report, err := d.LastReport()
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "build-1", report.BuildID)
	assert.Equal(t, 1, d.Builds())
	assert.Equal(t, HealthStatusHealthy, d.Health().Status)
}

func TestRunOnce_FatalBuildDegrades(t *testing.T) {
	d, err := New(Options{Interval: time.Minute}, func(context.Context) (*site.Report, error) {
		return &site.Report{BuildID: "x", Fatal: true, Outcome: metrics.BuildOutcomeFailed},
			serrors.StaticCopyFailed("static", errors.New("disk full"))
	})
	require.NoError(t, err)

	d.RunOnce(context.Background())
	h := d.Health()
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "failed", h.LastOutcome)
	assert.Contains(t, h.LastError, "disk full")
}

func TestRunOnce_SkipsWhileBuilding(t *testing.T) {
	var calls atomic.Int32
	d, err := New(Options{Interval: time.Minute}, okBuild(&calls))
	require.NoError(t, err)

	d.building.Store(true)
	d.RunOnce(context.Background())
	assert.Zero(t, calls.Load())
}

func TestHandler(t *testing.T) {
	var calls atomic.Int32
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	d, err := New(Options{Interval: time.Minute, Registry: reg}, okBuild(&calls))
	require.NoError(t, err)
	h := d.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	d.RunOnce(context.Background())
	rec.IncBuildOutcome(metrics.BuildOutcomeSuccess)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Equal(t, "build-1", health.LastBuildID)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "build-1", report["build_id"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sitegen_build_outcomes_total")
}

func TestServe_BuildsAndStops(t *testing.T) {
	var calls atomic.Int32
	d, err := New(Options{Interval: time.Hour}, okBuild(&calls))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return d.Builds() >= 1 }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return d.scheduler.Jobs() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.GreaterOrEqual(t, d.Builds(), 1)
}
