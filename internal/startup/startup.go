package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-browser/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
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

// Config holds all application configuration.
type Config struct {
	MediaDir        string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool
	WatcherEnabled  bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Thumbnails require a writable cache directory.
	ThumbnailsEnabled bool
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	watcherEnabled := getEnvBool("WATCHER_ENABLED", true)

	logging.Info("  MEDIA_DIR:         %s", mediaDir)
	logging.Info("  CACHE_DIR:         %s", cacheDir)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  WATCHER_ENABLED:   %v", watcherEnabled)
	logging.Info("  LOG_STATIC_FILES:  %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	mediaDir, err = filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Media directory:    %s", mediaDir)
	logging.Info("  Cache directory:    %s", cacheDir)
	logging.Info("  Database directory: %s", databaseDir)

	if err := ensureDirectory(mediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	config := &Config{
		MediaDir:        mediaDir,
		CacheDir:        cacheDir,
		DatabaseDir:     databaseDir,
		Port:            port,
		MetricsPort:     metricsPort,
		LogStaticFiles:  logStaticFiles,
		LogHealthChecks: logHealthChecks,
		MetricsEnabled:  metricsEnabled,
		WatcherEnabled:  watcherEnabled,
		DatabasePath:    filepath.Join(databaseDir, "browser.db"),
		ThumbnailDir:    filepath.Join(cacheDir, "thumbnails"),
	}

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.ThumbnailsEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnails")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:   ENABLED (required)")
	logging.Info("    Thumbnails: %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Watcher:    %s", enabledString(config.WatcherEnabled))
	logging.Info("    Metrics:    %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", name, path, mkErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", name, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove test file %s: %v", testFile, err)
	}
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// CheckFFmpeg reports whether ffmpeg is on PATH. Video thumbnails need it.
func CheckFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	logging.Debug("  ffmpeg found at %s", path)
	return nil
}

// LogDatabaseInit logs database initialization.
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogPipelineInit logs thumbnail pipeline startup details.
func LogPipelineInit(workers int, thumbnailsEnabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL PIPELINE")
	logging.Info("------------------------------------------------------------")
	if !thumbnailsEnabled {
		logging.Warn("  Thumbnails disabled (cache directory not writable)")
		logging.Warn("  Default icons will be shown instead")
		return
	}

	logging.Info("  Workers: %d", workers)
	if err := CheckFFmpeg(); err != nil {
		logging.Warn("  %v", err)
		logging.Warn("  Video thumbnails will not be generated")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router.
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
				Name:   route.GetName(),
			})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs registered HTTP routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds values for the startup summary log.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the startup summary with endpoint information.
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time: %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application: http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
}
