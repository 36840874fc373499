package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
)

// DurationPad is added to every requested clip duration so the remuxer
// does not truncate the final frame at the cut point. The delivered clip
// is therefore up to one second longer than requested.
const DurationPad = 1.0

// ErrKilled indicates the process was force-terminated by the janitor
// rather than exiting on its own.
var ErrKilled = errors.New("transcode killed")

// RunError indicates the external remux process failed or exited
// abnormally. Stderr carries the tail of the process diagnostics for
// logs; it is never shown to clients.
type RunError struct {
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("transcode failed: %v", e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// State describes the lifecycle of a transcode job.
type State int

const (
	// StateCreated means the job has been built but not started.
	StateCreated State = iota
	// StateRunning means the external process is alive.
	StateRunning
	// StateCompleted means the process exited cleanly.
	StateCompleted
	// StateFailed means the process exited abnormally or was killed.
	StateFailed
)

// Job wraps one external remux process. The input stream is consumed on
// the process's stdin; output is written to the destination path. The
// caller retains the Job so the janitor can force-terminate it if the
// client goes away mid-transcode.
type Job struct {
	cmd    *exec.Cmd
	dest   string
	stderr bytes.Buffer

	mu     sync.Mutex
	state  State
	killed bool
}

// New builds a remux job: fine-seek to seek seconds on the input, limit
// output to duration+DurationPad seconds, copy both codecs (no re-encode),
// zero out negative timestamps, front-load the container index for
// progressive playback, and overwrite any pre-existing destination file.
func New(ffmpegPath string, input io.Reader, seek, duration float64, dest string) *Job {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	cmd := exec.Command(ffmpegPath, buildArgs(seek, duration, dest)...)
	cmd.Stdin = input

	j := &Job{
		cmd:   cmd,
		dest:  dest,
		state: StateCreated,
	}
	cmd.Stderr = &j.stderr

	return j
}

// buildArgs assembles the ffmpeg invocation for a bounded copy-codec remux.
func buildArgs(seek, duration float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(seek),
		"-i", "pipe:0",
		"-t", formatSeconds(duration + DurationPad),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		"-f", "mp4",
		dest,
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// Run starts the process and blocks until it reaches a terminal state.
// It returns nil on a clean exit and a *RunError otherwise. The terminal
// state is observed exactly once; Run must not be called twice.
func (j *Job) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.state != StateCreated {
		j.mu.Unlock()
		return fmt.Errorf("transcode job already started")
	}

	// A kill that arrived before the process launched must win: starting
	// now would recreate the destination after the janitor already
	// settled the job.
	if j.killed {
		j.state = StateFailed
		j.mu.Unlock()
		metrics.TranscoderRunsTotal.WithLabelValues("killed").Inc()
		return &RunError{Err: ErrKilled}
	}

	if err := j.cmd.Start(); err != nil {
		j.state = StateFailed
		j.mu.Unlock()
		metrics.TranscoderRunsTotal.WithLabelValues("failed").Inc()
		return &RunError{Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}
	j.state = StateRunning
	j.mu.Unlock()

	metrics.TranscoderProcessesRunning.Inc()
	defer metrics.TranscoderProcessesRunning.Dec()

	start := time.Now()
	waitErr := j.cmd.Wait()
	metrics.TranscoderRunDuration.Observe(time.Since(start).Seconds())

	j.mu.Lock()
	killed := j.killed
	if waitErr == nil {
		j.state = StateCompleted
	} else {
		j.state = StateFailed
	}
	j.mu.Unlock()

	if waitErr == nil {
		metrics.TranscoderRunsTotal.WithLabelValues("completed").Inc()
		logging.Debug("Transcode completed: %s in %v", j.dest, time.Since(start))
		return nil
	}

	if killed {
		metrics.TranscoderRunsTotal.WithLabelValues("killed").Inc()
		logging.Debug("Transcode killed: %s", j.dest)
		return &RunError{Stderr: j.stderrTail(), Err: ErrKilled}
	}

	if ctx.Err() != nil {
		metrics.TranscoderRunsTotal.WithLabelValues("killed").Inc()
		return &RunError{Stderr: j.stderrTail(), Err: ctx.Err()}
	}

	metrics.TranscoderRunsTotal.WithLabelValues("failed").Inc()
	logging.Error("FFmpeg failed for %s: %s", j.dest, j.stderrTail())
	return &RunError{Stderr: j.stderrTail(), Err: waitErr}
}

// Kill force-terminates the process if it is still alive. Safe to call
// at any state and more than once.
func (j *Job) Kill() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.killed {
		return
	}
	j.killed = true

	// Only a running job has a live process to terminate
	if j.state == StateRunning && j.cmd.Process != nil {
		if err := j.cmd.Process.Kill(); err != nil {
			logging.Warn("failed to kill transcode process for %s: %v", j.dest, err)
		}
	}
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Args exposes the assembled command line for logging and tests.
func (j *Job) Args() []string {
	return j.cmd.Args
}

// stderrTail returns the last chunk of process diagnostics for logging.
func (j *Job) stderrTail() string {
	const tailBytes = 2048
	b := j.stderr.Bytes()
	if len(b) > tailBytes {
		b = b[len(b)-tailBytes:]
	}
	return string(bytes.TrimSpace(b))
}
