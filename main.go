package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/dispatch"
	"media-browser/internal/events"
	"media-browser/internal/handlers"
	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/middleware"
	"media-browser/internal/queue"
	"media-browser/internal/reconciler"
	"media-browser/internal/scanner"
	"media-browser/internal/startup"
	"media-browser/internal/watcher"
	"media-browser/internal/worker"
	"media-browser/internal/workers"

	"github.com/gorilla/mux"
)

const maxThumbnailWorkers = 8

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize libvips for image decoding; thumbnails fall back to the
	// pure-Go decoders when it is unavailable.
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using fallback decoders: %v", err)
	}
	defer media.ShutdownVips()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions and refresh pool metrics periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if removed, err := db.CleanExpiredSessions(ctx); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			} else if removed > 0 {
				logging.Debug("Removed %d expired sessions", removed)
			}
			cancel()
		}
	}()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			db.UpdateConnMetrics()
		}
	}()

	// Core services
	scan := scanner.New(config.MediaDir)
	rec := reconciler.New(db)
	thumbs := media.NewThumbnailer(config.ThumbnailDir, config.ThumbnailsEnabled)

	// Thumbnail pipeline: durable queue, dispatcher, event bus, worker pool
	pipelineCtx, pipelineCancel := context.WithCancel(context.Background())
	defer pipelineCancel()

	q := queue.New(db)
	q.Start(pipelineCtx)

	disp := dispatch.New(q, thumbs)
	bus := events.NewBus()

	workerCount := workers.ForMixed(maxThumbnailWorkers)
	startup.LogPipelineInit(workerCount, config.ThumbnailsEnabled)

	pool := worker.NewPool(workerCount, q, thumbs, scan, bus)
	pool.Start(pipelineCtx)

	// Filesystem watcher feeds new media into the pipeline
	var watch *watcher.Watcher
	if config.WatcherEnabled {
		watch = watcher.New(config.MediaDir, disp)
		watch.Start(pipelineCtx)
	}

	// Initialize handlers
	h := handlers.New(db, scan, rec, disp, q, bus, thumbs, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(authedRouter)

	// Apply metrics middleware
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Apply compression middleware
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(meteredHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on a separate port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:    ":" + config.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, watch, pool, q, bus, pipelineCancel)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/browse", h.Browse).Methods("GET")
	api.HandleFunc("/file/{path:.*}", h.GetFile).Methods("GET")
	api.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/thumbnails/directory", h.EnqueueDirectoryThumbnails).Methods("POST")
	api.HandleFunc("/thumbnails/file", h.EnqueueFileThumbnail).Methods("POST")
	api.HandleFunc("/events", h.EventStream).Methods("GET")
	api.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Favorites
	api.HandleFunc("/favorites", h.ListFavorites).Methods("GET")
	api.HandleFunc("/favorites/{id}", h.AddFavorite).Methods("PUT")
	api.HandleFunc("/favorites/{id}", h.RemoveFavorite).Methods("DELETE")

	// Tags
	api.HandleFunc("/tags", h.ListTags).Methods("GET")
	api.HandleFunc("/media/{id}/tags", h.TagMedia).Methods("POST")
	api.HandleFunc("/media/{id}/tags", h.UntagMedia).Methods("DELETE")

	// Titles
	api.HandleFunc("/title", h.SetTitle).Methods("PUT")

	return r
}

func handleShutdown(
	srv *http.Server,
	metricsSrv *http.Server,
	watch *watcher.Watcher,
	pool *worker.Pool,
	q *queue.Queue,
	bus *events.Bus,
	pipelineCancel context.CancelFunc,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first so no new jobs arrive mid-drain.
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if watch != nil {
		watch.Stop()
	}

	pipelineCancel()
	pool.Stop()
	q.Stop()
	bus.Close()

	logging.Info("Shutdown complete")
}
