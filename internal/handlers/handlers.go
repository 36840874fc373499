package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"yt-clipper/internal/clipper"
	"yt-clipper/internal/database"
	"yt-clipper/internal/logging"
	"yt-clipper/internal/media"
	"yt-clipper/internal/resolver"
	"yt-clipper/internal/startup"
)

// ClipExtractor runs the end-to-end extraction pipeline and writes the
// resulting clip to the response.
type ClipExtractor interface {
	Extract(ctx context.Context, req clipper.Request, w http.ResponseWriter) (clipper.Result, error)
}

// FormatResolver resolves a video identifier to metadata and formats.
type FormatResolver interface {
	Resolve(ctx context.Context, videoID string) (*resolver.Video, error)
}

// JobStore persists clip-job history rows.
type JobStore interface {
	InsertJob(ctx context.Context, job database.ClipJob) error
	FinishJob(ctx context.Context, id, status, errMsg string, bytesSent int64) error
	RecentJobs(ctx context.Context, limit int) ([]database.ClipJob, error)
	Stats(ctx context.Context) (database.JobStats, error)
}

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	db        JobStore
	clips     ClipExtractor
	resolver  FormatResolver
	poster    *media.PosterFetcher
	config    *startup.Config
	startTime time.Time
}

// New creates a new Handlers instance
func New(db JobStore, clips ClipExtractor, res FormatResolver, poster *media.PosterFetcher, config *startup.Config) *Handlers {
	return &Handlers{
		db:        db,
		clips:     clips,
		resolver:  res,
		poster:    poster,
		config:    config,
		startTime: time.Now(),
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
