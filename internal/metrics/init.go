package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Clip job outcomes ---
	for _, status := range []string{
		"completed", "aborted", "validation_error", "resolve_error",
		"stream_error", "transcode_error", "delivery_error",
	} {
		ClipJobsTotal.WithLabelValues(status)
	}

	// --- Transcoder run outcomes ---
	for _, status := range []string{"completed", "failed", "killed"} {
		TranscoderRunsTotal.WithLabelValues(status)
	}

	// --- Resolver lookup outcomes ---
	for _, status := range []string{"success", "not_found", "no_muxed_format", "error"} {
		ResolverLookupsTotal.WithLabelValues(status)
	}

	// --- Poster outcomes ---
	for _, status := range []string{"success", "fetch_error", "decode_error"} {
		PosterRequestsTotal.WithLabelValues(status)
	}

	// --- DB operations ---
	for _, op := range []string{"initialize_schema", "insert_job", "finish_job", "recent_jobs", "job_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
