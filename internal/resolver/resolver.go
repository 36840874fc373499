package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
)

// Sentinel errors for format resolution.
var (
	// ErrNotFound indicates the video could not be located at the source.
	ErrNotFound = errors.New("video not found")

	// ErrNoMuxedFormat indicates no available format carries both an audio
	// and a video track, so there is nothing to remux without re-encoding.
	ErrNoMuxedFormat = errors.New("no format with both audio and video")
)

// Format describes one downloadable variant of a video.
type Format struct {
	ID       string  `json:"format_id"`
	Ext      string  `json:"ext"`
	URL      string  `json:"url"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Height   int     `json:"height"`
	TBR      float64 `json:"tbr"`
	Protocol string  `json:"protocol"`
}

// HasVideo reports whether the format carries a video track.
func (f Format) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// HasAudio reports whether the format carries an audio track.
func (f Format) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// Video is the resolved metadata and format list for one video.
type Video struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Thumbnail string   `json:"thumbnail"`
	Channel   string   `json:"channel"`
	Formats   []Format `json:"formats"`
}

// Resolver looks up video metadata and playable formats through yt-dlp.
type Resolver struct {
	ytdlpPath string
}

// New creates a Resolver that shells out to the given yt-dlp binary.
func New(ytdlpPath string) *Resolver {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Resolver{ytdlpPath: ytdlpPath}
}

// Resolve fetches metadata and the available formats for a video.
// It returns ErrNotFound when the source cannot locate the video.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (*Video, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.ytdlpPath,
		"-J",
		"--no-playlist",
		"--no-warnings",
		WatchURL(videoID),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ResolverLookupDuration.Observe(time.Since(start).Seconds())
		msg := stderr.String()
		if isNotFoundOutput(msg) {
			metrics.ResolverLookupsTotal.WithLabelValues("not_found").Inc()
			logging.Debug("Resolver: video %s not found: %s", videoID, firstLine(msg))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
		}
		metrics.ResolverLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("yt-dlp failed for %s: %w: %s", videoID, err, firstLine(msg))
	}

	var video Video
	if err := json.Unmarshal(stdout.Bytes(), &video); err != nil {
		metrics.ResolverLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to parse yt-dlp output for %s: %w", videoID, err)
	}

	metrics.ResolverLookupsTotal.WithLabelValues("success").Inc()
	metrics.ResolverLookupDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Resolved %s: %d formats, duration %.0fs", videoID, len(video.Formats), video.Duration)

	return &video, nil
}

// BestMuxed selects the highest-quality format that carries both audio and
// video. Quality is compared by pixel height; ties keep the first-listed
// format (resolver order is not re-sorted, so selection is deterministic).
func BestMuxed(formats []Format) (Format, error) {
	best := -1
	for i, f := range formats {
		if !f.HasVideo() || !f.HasAudio() {
			continue
		}
		// HLS/DASH manifest entries are not direct byte streams
		if strings.HasPrefix(f.Protocol, "m3u8") || f.URL == "" {
			continue
		}
		if best == -1 || f.Height > formats[best].Height {
			best = i
		}
	}

	if best == -1 {
		return Format{}, ErrNoMuxedFormat
	}
	return formats[best], nil
}

// isNotFoundOutput matches the yt-dlp stderr shapes for an unresolvable video.
func isNotFoundOutput(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range []string{
		"video unavailable",
		"this video is not available",
		"is not a valid url",
		"incomplete youtube id",
		"unable to download webpage",
		"private video",
		"has been removed",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
