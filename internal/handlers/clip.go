package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"yt-clipper/internal/clipper"
	"yt-clipper/internal/database"
	"yt-clipper/internal/logging"
	"yt-clipper/internal/resolver"
)

// ExtractClip handles GET /api/clip/{videoId}?start=<s>&duration=<s>.
// On success the response body is the clip itself, delivered as an
// attachment. JSON errors are only possible before the first media byte
// is written; after that the handler can only log and account.
func (h *Handlers) ExtractClip(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["videoId"]

	start, err := parseSeconds(r.URL.Query().Get("start"), 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid start parameter")
		return
	}

	durationStr := r.URL.Query().Get("duration")
	if durationStr == "" {
		writeJSONError(w, http.StatusBadRequest, "duration parameter is required")
		return
	}
	duration, err := parseSeconds(durationStr, 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid duration parameter")
		return
	}

	req := clipper.Request{
		VideoID:  videoID,
		Start:    start,
		Duration: duration,
	}

	jobID := uuid.NewString()
	if err := h.db.InsertJob(r.Context(), database.ClipJob{
		ID:              jobID,
		VideoID:         videoID,
		StartSeconds:    start,
		DurationSeconds: duration,
		Status:          "started",
	}); err != nil {
		// History is best-effort: a failed insert never blocks the clip
		logging.Warn("failed to record clip job %s: %v", jobID, err)
	}

	result, extractErr := h.clips.Extract(r.Context(), req, w)

	h.finishJob(jobID, result, extractErr)

	if extractErr == nil {
		return
	}

	if result.BytesSent > 0 {
		// Headers and media bytes are already on the wire; the status
		// line cannot change anymore.
		logging.Warn("clip %s ended mid-delivery (%s): %v", jobID, result.Status, extractErr)
		return
	}

	// The delivery stage may have set attachment headers before failing
	// without sending a byte; they must not frame the JSON error.
	w.Header().Del("Content-Disposition")
	w.Header().Del("Content-Length")
	w.Header().Del("X-Content-Type-Options")

	switch result.Status {
	case clipper.StatusValidationError:
		writeJSONError(w, http.StatusBadRequest, extractErr.Error())
	case clipper.StatusResolveError:
		if errors.Is(extractErr, resolver.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "video not found")
		} else if errors.Is(extractErr, resolver.ErrNoMuxedFormat) {
			writeJSONError(w, http.StatusUnprocessableEntity, "no suitable format available for this video")
		} else {
			logging.Error("clip %s resolve failed: %v", jobID, extractErr)
			writeJSONError(w, http.StatusBadGateway, "failed to resolve video")
		}
	case clipper.StatusStreamError:
		logging.Error("clip %s stream open failed: %v", jobID, extractErr)
		writeJSONError(w, http.StatusBadGateway, "failed to open source stream")
	case clipper.StatusTranscodeError:
		logging.Error("clip %s transcode failed: %v", jobID, extractErr)
		writeJSONError(w, http.StatusInternalServerError, "clip extraction failed")
	case clipper.StatusAborted:
		logging.Info("clip %s aborted by client before delivery", jobID)
	default:
		logging.Error("clip %s failed: %v", jobID, extractErr)
		writeJSONError(w, http.StatusInternalServerError, "clip extraction failed")
	}
}

// finishJob records the terminal outcome. The request context may
// already be canceled (aborts), so the update gets its own deadline.
func (h *Handlers) finishJob(jobID string, result clipper.Result, extractErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errMsg := ""
	if extractErr != nil {
		errMsg = extractErr.Error()
	}

	if err := h.db.FinishJob(ctx, jobID, result.Status, errMsg, result.BytesSent); err != nil {
		logging.Warn("failed to finalize clip job %s: %v", jobID, err)
	}
}

// parseSeconds parses a non-negative seconds value, returning def for
// an empty string.
func parseSeconds(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
