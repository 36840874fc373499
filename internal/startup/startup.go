package startup

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"yt-clipper/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	TempDir         string
	DatabaseDir     string
	YtdlpPath       string
	FfmpegPath      string
	MaxClipDuration float64
	LogHealthChecks bool

	// Proxy is the optional outbound proxy for the stream source.
	// nil means direct connections.
	Proxy *url.URL

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	tempDir := getEnv("TEMP_DIR", "/tmp/yt-clipper")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	ytdlpPath := getEnv("YTDLP_PATH", "yt-dlp")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	maxClipStr := getEnv("MAX_CLIP_DURATION", "600")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	proxyStr := getEnv("PROXY_URL", "")

	logging.Info("  PORT:               %s", port)
	logging.Info("  METRICS_PORT:       %s", metricsPort)
	logging.Info("  METRICS_ENABLED:    %v", metricsEnabled)
	logging.Info("  TEMP_DIR:           %s", tempDir)
	logging.Info("  DATABASE_DIR:       %s", databaseDir)
	logging.Info("  YTDLP_PATH:         %s", ytdlpPath)
	logging.Info("  FFMPEG_PATH:        %s", ffmpegPath)
	logging.Info("  MAX_CLIP_DURATION:  %s", maxClipStr)
	logging.Info("  LOG_HEALTH_CHECKS:  %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	maxClip, err := strconv.ParseFloat(maxClipStr, 64)
	if err != nil || maxClip < 0 {
		logging.Warn("  Invalid MAX_CLIP_DURATION, using default: 600")
		maxClip = 600
	}

	var proxy *url.URL
	if proxyStr != "" {
		proxy, err = url.Parse(proxyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PROXY_URL: %w", err)
		}
		logging.Info("  PROXY_URL:          %s", proxy.Redacted())
	} else {
		logging.Info("  PROXY_URL:          (direct)")
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	tempDir, err = filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}
	logging.Info("  Temp directory (absolute): %s", tempDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	// The temp root is process-wide: created once here, never deleted.
	// Individual clip artifacts inside it are owned by their job's janitor.
	if err := ensureDirectory(tempDir, "temp"); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}

	logging.Debug("  Testing temp directory write access...")
	if err := testWriteAccess(tempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable (required for clip artifacts): %w", err)
	}
	logging.Info("  [OK] Temp directory is writable")

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for job history): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config := &Config{
		Port:            port,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		TempDir:         tempDir,
		DatabaseDir:     databaseDir,
		YtdlpPath:       ytdlpPath,
		FfmpegPath:      ffmpegPath,
		MaxClipDuration: maxClip,
		LogHealthChecks: logHealthChecks,
		Proxy:           proxy,
		DatabasePath:    filepath.Join(databaseDir, "clipper.db"),
	}

	return config, nil
}

// LogToolCheck verifies the external tools the pipeline shells out to.
// Missing tools are warnings: the server still starts, jobs fail with
// clear errors.
func LogToolCheck(ffmpegPath, ytdlpPath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	if err := checkTool(ffmpegPath, "-version"); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Clip extraction will not work until ffmpeg is available")
	} else {
		logging.Info("  [OK] ffmpeg is available")
	}

	if err := checkTool(ytdlpPath, "--version"); err != nil {
		logging.Warn("  yt-dlp check failed: %v", err)
		logging.Warn("  Format resolution will not work until yt-dlp is available")
	} else {
		logging.Info("  [OK] yt-dlp is available")
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Job history initialized in %v", duration)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
 __ __ ______  ______ __    ____
 \ V /|_    _|/ _____|  |  |_/ _ \ _ __   ___ _ __
  \ /   |  |  | |    |  |  | | |_) | '_ \ / _ \ '__|
  |_|   |__|  |_|____|  |__| |  __/| |_) |  __/ |
              \______|______|_|    | .__/ \___|_|
                                   |_|
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless
	}
	return nil
}

func checkTool(path string, versionArg string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", path)
	}
	logging.Debug("  Tool path: %s", resolved)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, resolved, versionArg)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", path, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", path, strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
