package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/resolver"
)

// VideoInfoResponse is the metadata payload for one video.
type VideoInfoResponse struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Duration   float64     `json:"duration"`
	Channel    string      `json:"channel,omitempty"`
	Thumbnail  string      `json:"thumbnail,omitempty"`
	BestFormat *FormatInfo `json:"bestFormat,omitempty"`
}

// FormatInfo describes the format a clip request would use.
type FormatInfo struct {
	ID     string `json:"id"`
	Ext    string `json:"ext"`
	Height int    `json:"height"`
}

// GetVideoInfo handles GET /api/video-info/{videoId}. It returns the
// video's metadata plus the muxed format a clip job would pick, so a
// client can show duration and quality before requesting a clip.
func (h *Handlers) GetVideoInfo(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["videoId"]

	videoID, ok := resolver.ParseVideoID(raw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid video identifier")
		return
	}

	video, err := h.resolver.Resolve(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "video not found")
			return
		}
		logging.Error("video-info resolve failed for %s: %v", videoID, err)
		writeJSONError(w, http.StatusBadGateway, "failed to resolve video")
		return
	}

	resp := VideoInfoResponse{
		ID:        video.ID,
		Title:     video.Title,
		Duration:  video.Duration,
		Channel:   video.Channel,
		Thumbnail: video.Thumbnail,
	}

	if best, err := resolver.BestMuxed(video.Formats); err == nil {
		resp.BestFormat = &FormatInfo{
			ID:     best.ID,
			Ext:    best.Ext,
			Height: best.Height,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPoster handles GET /api/poster/{videoId}?width=<px>. The source
// thumbnail is fetched and resized server-side so clients never talk to
// the video host directly.
func (h *Handlers) GetPoster(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["videoId"]

	videoID, ok := resolver.ParseVideoID(raw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid video identifier")
		return
	}

	width := 0
	if ws := r.URL.Query().Get("width"); ws != "" {
		parsed, err := strconv.Atoi(ws)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid width parameter")
			return
		}
		width = parsed
	}

	video, err := h.resolver.Resolve(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "video not found")
			return
		}
		logging.Error("poster resolve failed for %s: %v", videoID, err)
		writeJSONError(w, http.StatusBadGateway, "failed to resolve video")
		return
	}

	if video.Thumbnail == "" {
		writeJSONError(w, http.StatusNotFound, "video has no thumbnail")
		return
	}

	data, err := h.poster.Fetch(r.Context(), video.Thumbnail, width)
	if err != nil {
		logging.Error("poster fetch failed for %s: %v", videoID, err)
		writeJSONError(w, http.StatusBadGateway, "failed to fetch poster")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("poster write for %s: %v", videoID, err)
	}
}
