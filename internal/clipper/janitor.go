package clipper

import (
	"io"
	"os"
	"sync"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
)

// JobResources holds everything a clip job has allocated so far. Fields
// are populated incrementally as stages succeed; teardown only needs to
// know which fields were set.
type JobResources struct {
	// Job is the transcoder process handle, killable at any state.
	Job TranscodeJob
	// Stream is the open network stream feeding the transcoder.
	Stream io.Closer
	// File is the delivery-side read handle on the temp artifact.
	File io.Closer
	// TempPath is the temp artifact to delete.
	TempPath string
}

// Janitor owns the teardown of one job's resources. Cleanup fires at
// most once no matter how many paths race to call it; subsequent calls
// are no-ops.
type Janitor struct {
	mu   sync.Mutex
	once sync.Once
	res  JobResources
}

// NewJanitor creates an empty janitor for one job.
func NewJanitor() *Janitor {
	return &Janitor{}
}

// TrackJob hands the transcoder process handle to the janitor.
func (j *Janitor) TrackJob(job TranscodeJob) {
	j.mu.Lock()
	j.res.Job = job
	j.mu.Unlock()
}

// TrackStream hands the open network stream to the janitor.
func (j *Janitor) TrackStream(stream io.Closer) {
	j.mu.Lock()
	j.res.Stream = stream
	j.mu.Unlock()
}

// TrackFile hands the delivery read handle to the janitor.
func (j *Janitor) TrackFile(f io.Closer) {
	j.mu.Lock()
	j.res.File = f
	j.mu.Unlock()
}

// TrackTemp hands the temp artifact path to the janitor.
func (j *Janitor) TrackTemp(path string) {
	j.mu.Lock()
	j.res.TempPath = path
	j.mu.Unlock()
}

// Cleanup releases every tracked resource, in order: force-terminate the
// transcoder process, destroy the network stream, close the delivery
// read handle, delete the temp artifact. A missing temp file is not an
// error; any other failure is logged and counted but never escalated,
// since the response may already be in flight or finished.
func (j *Janitor) Cleanup() {
	j.once.Do(func() {
		j.mu.Lock()
		res := j.res
		j.mu.Unlock()

		if res.Job != nil {
			res.Job.Kill()
		}

		if res.Stream != nil {
			if err := res.Stream.Close(); err != nil {
				logging.Warn("Janitor: failed to close stream: %v", err)
				metrics.CleanupErrors.Inc()
			}
		}

		if res.File != nil {
			if err := res.File.Close(); err != nil {
				logging.Warn("Janitor: failed to close delivery file: %v", err)
				metrics.CleanupErrors.Inc()
			}
		}

		if res.TempPath != "" {
			if err := os.Remove(res.TempPath); err != nil && !os.IsNotExist(err) {
				logging.Warn("Janitor: failed to remove temp file %s: %v", res.TempPath, err)
				metrics.CleanupErrors.Inc()
			}
		}
	})
}
