package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

// HealthStatus represents the overall health of the daemon.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status      HealthStatus `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Uptime      string       `json:"uptime"`
	Version     string       `json:"version"`
	Builds      int          `json:"builds"`
	LastBuildID string       `json:"last_build_id,omitempty"`
	LastOutcome string       `json:"last_outcome,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
}

// Handler returns the status endpoints.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.handleHealth)
	mux.HandleFunc("GET /report", d.handleReport)
	if d.opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(d.opts.Registry))
	}
	return mux
}

// Health summarises the daemon state. The daemon is unhealthy while no
// build has completed and degraded when the latest build aborted.
func (d *Daemon) Health() HealthResponse {
	report, err := d.LastReport()
	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(d.startedAt).Truncate(time.Second).String(),
		Version:   version.Version,
		Builds:    d.Builds(),
	}
	if report != nil {
		resp.LastBuildID = report.BuildID
		resp.LastOutcome = string(report.Outcome)
	}
	switch {
	case report == nil:
		resp.Status = HealthStatusUnhealthy
	case err != nil:
		resp.Status = HealthStatusDegraded
		resp.LastError = err.Error()
	}
	return resp
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := d.Health()
	code := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (d *Daemon) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, _ := d.LastReport()
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no build has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("Failed to encode response", logfields.Error(err))
	}
}
