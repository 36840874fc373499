// Package metrics defines all Prometheus collectors exported by the clip
// server. Collectors are registered at import time via promauto; callers
// only ever touch the exported variables.
//
// Metric families:
//
//	yt_clipper_http_*        request counts, durations, in-flight gauge
//	yt_clipper_clip_*        clip job outcomes, durations, delivered bytes
//	yt_clipper_transcoder_*  ffmpeg run outcomes and durations
//	yt_clipper_resolver_*    yt-dlp format lookups
//	yt_clipper_db_*          job-history store queries
//	yt_clipper_poster_*      poster image requests
//	yt_clipper_app_info      version/commit/go_version labels
//
// InitializeMetrics pre-populates known label combinations so dashboards
// see zero-valued series immediately after startup rather than gaps.
package metrics
