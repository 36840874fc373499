package clipper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
	"yt-clipper/internal/resolver"
	"yt-clipper/internal/source"
	"yt-clipper/internal/streaming"
	"yt-clipper/internal/transcoder"
)

// FormatResolver resolves a video identifier to metadata and formats.
type FormatResolver interface {
	Resolve(ctx context.Context, videoID string) (*resolver.Video, error)
}

// StreamOpener opens the network byte stream for a chosen format at a
// coarse start offset. The returned stream's Close must be idempotent.
type StreamOpener interface {
	Open(ctx context.Context, format resolver.Format, startOffset float64) (io.ReadCloser, error)
}

// TranscodeJob is one external remux process: Run blocks until the
// process reaches a terminal state, Kill force-terminates it.
type TranscodeJob interface {
	Run(ctx context.Context) error
	Kill()
}

// JobFactory builds a transcode job for a given input stream, fine-seek
// offset, output duration, and destination path.
type JobFactory func(input io.Reader, seek, duration float64, dest string) TranscodeJob

// Job outcome statuses, shared by metrics labels and the job-history store.
const (
	StatusCompleted       = "completed"
	StatusAborted         = "aborted"
	StatusValidationError = "validation_error"
	StatusResolveError    = "resolve_error"
	StatusStreamError     = "stream_error"
	StatusTranscodeError  = "transcode_error"
	StatusDeliveryError   = "delivery_error"
)

// Config holds the orchestrator's settings.
type Config struct {
	// TempDir is the process-wide temp root; created once at startup.
	TempDir string
	// MaxClipDuration caps the requested clip length in seconds (0 = uncapped).
	MaxClipDuration float64
	// Stream configures the delivery sink timeouts.
	Stream streaming.TimeoutWriterConfig
}

// Service composes resolver, stream source, transcoder, and delivery
// sink into the end-to-end clip-extraction job.
type Service struct {
	resolver FormatResolver
	opener   StreamOpener
	newJob   JobFactory
	cfg      Config
}

// New creates the clip orchestrator.
func New(res FormatResolver, opener StreamOpener, newJob JobFactory, cfg Config) *Service {
	return &Service{
		resolver: res,
		opener:   opener,
		newJob:   newJob,
		cfg:      cfg,
	}
}

// Result summarizes one finished clip job for history and logging.
type Result struct {
	VideoID   string
	Title     string
	FormatID  string
	Status    string
	BytesSent int64
	Elapsed   time.Duration
}

// Extract runs the full pipeline for one request:
// validate → resolve format → open stream → transcode → deliver → cleanup.
// Cleanup fires exactly once on every path, including client disconnects
// mid-transcode and mid-delivery. The returned Result always carries the
// terminal status; the error is nil only for StatusCompleted.
func (s *Service) Extract(ctx context.Context, req Request, w http.ResponseWriter) (Result, error) {
	start := time.Now()
	res := Result{VideoID: req.VideoID, Status: StatusValidationError}

	finish := func(status string, err error) (Result, error) {
		res.Status = status
		res.Elapsed = time.Since(start)
		metrics.ClipJobsTotal.WithLabelValues(status).Inc()
		metrics.ClipJobDuration.Observe(res.Elapsed.Seconds())
		return res, err
	}

	metrics.ClipJobsInProgress.Inc()
	defer metrics.ClipJobsInProgress.Dec()

	// Validating: nothing allocated yet, failures propagate directly
	if err := req.Validate(s.cfg.MaxClipDuration); err != nil {
		return finish(StatusValidationError, err)
	}
	res.VideoID = req.VideoID

	// Resolving
	video, err := s.resolver.Resolve(ctx, req.VideoID)
	if err != nil {
		return finish(StatusResolveError, err)
	}
	res.Title = video.Title

	format, err := resolver.BestMuxed(video.Formats)
	if err != nil {
		metrics.ResolverLookupsTotal.WithLabelValues("no_muxed_format").Inc()
		return finish(StatusResolveError, err)
	}
	res.FormatID = format.ID

	logging.Info("Clip job: video=%s format=%s (%dp) start=%.1fs duration=%.1fs",
		req.VideoID, format.ID, format.Height, req.Start, req.Duration)

	// Streaming: from here on every allocated resource goes to the janitor
	jn := NewJanitor()
	defer jn.Cleanup()

	stream, err := s.opener.Open(ctx, format, req.Start)
	if err != nil {
		return finish(StatusStreamError, err)
	}
	jn.TrackStream(stream)

	tempPath := s.tempPath()
	jn.TrackTemp(tempPath)

	// Transcoding
	job := s.newJob(stream, req.Start, req.Duration, tempPath)
	jn.TrackJob(job)

	runCh := make(chan error, 1)
	go func() {
		runCh <- job.Run(ctx)
	}()

	select {
	case err = <-runCh:
		if err != nil {
			jn.Cleanup()
			return finish(StatusTranscodeError, err)
		}
	case <-ctx.Done():
		// Client left mid-transcode: terminate the process immediately
		// rather than letting it run to completion, then drain the
		// job's terminal signal so nothing is orphaned.
		jn.Cleanup()
		<-runCh
		logging.Info("Clip job aborted during transcode: video=%s", req.VideoID)
		return finish(StatusAborted, fmt.Errorf("%w during transcode", streaming.ErrClientGone))
	}

	// The stream is fully consumed once the transcode completes
	if err := stream.Close(); err != nil {
		logging.Debug("stream close after transcode: %v", err)
	}

	// Delivering
	f, err := os.Open(tempPath)
	if err != nil {
		return finish(StatusDeliveryError, fmt.Errorf("failed to open clip artifact: %w", err))
	}
	jn.TrackFile(f)

	info, err := f.Stat()
	if err != nil {
		return finish(StatusDeliveryError, fmt.Errorf("failed to stat clip artifact: %w", err))
	}

	filename := downloadName(req.Start)
	n, err := streaming.DeliverFile(ctx, w, f, info.Size(), filename, s.cfg.Stream)
	res.BytesSent = n
	metrics.ClipBytesDelivered.Add(float64(n))

	jn.Cleanup()

	if err != nil {
		if streaming.IsAbort(err) {
			logging.Info("Clip job aborted during delivery: video=%s sent=%d/%d bytes",
				req.VideoID, n, info.Size())
			return finish(StatusAborted, err)
		}
		return finish(StatusDeliveryError, err)
	}

	logging.Info("Clip job completed: video=%s %d bytes in %v", req.VideoID, n, time.Since(start))
	return finish(StatusCompleted, nil)
}

// tempPath returns a collision-free temp artifact path under the
// process-wide temp root. Concurrent jobs must never share a name, so
// the nanosecond timestamp gets a random suffix.
func (s *Service) tempPath() string {
	name := fmt.Sprintf("temp_%d_%s.mp4", time.Now().UnixNano(), uuid.NewString()[:8])
	return filepath.Join(s.cfg.TempDir, name)
}

// downloadName generates the suggested attachment file name,
// Clip-<start>_<timestamp>.mp4.
func downloadName(start float64) string {
	return fmt.Sprintf("Clip-%d_%d.mp4", int64(start), time.Now().Unix())
}

// StatusForError maps a pipeline error back to its terminal status.
// Used by callers that only have the error in hand.
func StatusForError(err error) string {
	var (
		vErr   *ValidationError
		oErr   *source.OpenError
		runErr *transcoder.RunError
	)
	switch {
	case err == nil:
		return StatusCompleted
	case errors.As(err, &vErr):
		return StatusValidationError
	case errors.Is(err, resolver.ErrNotFound), errors.Is(err, resolver.ErrNoMuxedFormat):
		return StatusResolveError
	case errors.As(err, &oErr):
		return StatusStreamError
	case errors.As(err, &runErr):
		return StatusTranscodeError
	case streaming.IsAbort(err):
		return StatusAborted
	default:
		return StatusDeliveryError
	}
}
