package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yt-clipper/internal/clipper"
	"yt-clipper/internal/database"
	"yt-clipper/internal/handlers"
	"yt-clipper/internal/logging"
	"yt-clipper/internal/media"
	"yt-clipper/internal/metrics"
	"yt-clipper/internal/middleware"
	"yt-clipper/internal/resolver"
	"yt-clipper/internal/source"
	"yt-clipper/internal/startup"
	"yt-clipper/internal/streaming"
	"yt-clipper/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Verify the external tools the pipeline shells out to
	startup.LogToolCheck(config.FfmpegPath, config.YtdlpPath)

	// Initialize job history
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize metrics
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	// Build the clip pipeline
	res := resolver.New(config.YtdlpPath)
	opener := source.New(config.Proxy)
	poster := media.NewPosterFetcher()

	newJob := func(input io.Reader, seek, duration float64, dest string) clipper.TranscodeJob {
		return transcoder.New(config.FfmpegPath, input, seek, duration, dest)
	}

	clips := clipper.New(res, opener, newJob, clipper.Config{
		TempDir:         config.TempDir,
		MaxClipDuration: config.MaxClipDuration,
		Stream:          streaming.DefaultTimeoutWriterConfig(),
	})

	// Initialize handlers
	h := handlers.New(db, clips, res, poster, config)

	// Setup router
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Middleware chain: metrics innermost, then logging, compression outermost
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	// Clip delivery is long-lived and paced by the client, so the main
	// server gets no write timeout; the delivery sink enforces its own.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics get their own listener so scrapes never compete with
	// clip delivery on the main port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/clip/{videoId}", h.ExtractClip).Methods("GET")
	api.HandleFunc("/video-info/{videoId}", h.GetVideoInfo).Methods("GET")
	api.HandleFunc("/poster/{videoId}", h.GetPoster).Methods("GET")
	api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/version", h.GetVersion).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
