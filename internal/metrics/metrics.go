package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yt_clipper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yt_clipper_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Clip job metrics
var (
	ClipJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_clip_jobs_total",
			Help: "Total number of clip extraction jobs by outcome",
		},
		[]string{"status"}, // "completed", "aborted", "validation_error", "resolve_error", "stream_error", "transcode_error", "delivery_error"
	)

	ClipJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yt_clipper_clip_job_duration_seconds",
			Help:    "End-to-end clip job duration in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ClipJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yt_clipper_clip_jobs_in_progress",
			Help: "Number of clip jobs currently in progress",
		},
	)

	ClipBytesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yt_clipper_clip_bytes_delivered_total",
			Help: "Total clip bytes flushed to clients",
		},
	)

	CleanupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yt_clipper_cleanup_errors_total",
			Help: "Total number of resource cleanup failures (logged, never surfaced)",
		},
	)
)

// Transcoder metrics
var (
	TranscoderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_transcoder_runs_total",
			Help: "Total number of ffmpeg remux runs",
		},
		[]string{"status"}, // "completed", "failed", "killed"
	)

	TranscoderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yt_clipper_transcoder_run_duration_seconds",
			Help:    "ffmpeg remux duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	TranscoderProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yt_clipper_transcoder_processes_running",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Resolver metrics
var (
	ResolverLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_resolver_lookups_total",
			Help: "Total number of format resolution lookups",
		},
		[]string{"status"}, // "success", "not_found", "no_muxed_format", "error"
	)

	ResolverLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yt_clipper_resolver_lookup_duration_seconds",
			Help:    "Format resolution duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yt_clipper_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Poster metrics
var (
	PosterRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yt_clipper_poster_requests_total",
			Help: "Total number of poster image requests",
		},
		[]string{"status"}, // "success", "fetch_error", "decode_error"
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yt_clipper_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
