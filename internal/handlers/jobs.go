package handlers

import (
	"net/http"
	"strconv"

	"yt-clipper/internal/database"
	"yt-clipper/internal/logging"
)

// JobsResponse is the job-history payload.
type JobsResponse struct {
	Jobs  []database.ClipJob `json:"jobs"`
	Count int                `json:"count"`
}

// ListJobs handles GET /api/jobs?limit=<n>, returning recent clip jobs
// newest first.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		parsed, err := strconv.Atoi(ls)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	jobs, err := h.db.RecentJobs(r.Context(), limit)
	if err != nil {
		logging.Error("failed to list clip jobs: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	if jobs == nil {
		jobs = []database.ClipJob{}
	}

	writeJSON(w, http.StatusOK, JobsResponse{
		Jobs:  jobs,
		Count: len(jobs),
	})
}
