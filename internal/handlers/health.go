package handlers

import (
	"net/http"
	"time"

	"yt-clipper/internal/database"
	"yt-clipper/internal/logging"
	"yt-clipper/internal/startup"
)

// HealthResponse is the full health payload.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Jobs    database.JobStats `json:"jobs"`
}

// HealthCheck handles GET /api/health with uptime and job statistics.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.Stats(r.Context())
	if err != nil {
		logging.Error("health check stats query failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "degraded",
			Uptime:  time.Since(h.startTime).Round(time.Second).String(),
			Version: startup.Version,
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: startup.Version,
		Jobs:    stats,
	})
}

// LivenessCheck handles GET /healthz: the process is up.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck handles GET /readyz: ready once the job store answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.Stats(r.Context()); err != nil {
		logging.Warn("readiness check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion handles GET /api/version with build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
