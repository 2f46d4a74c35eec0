package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-pipeline/internal/database"
	"media-pipeline/internal/filesystem"
	"media-pipeline/internal/handlers"
	"media-pipeline/internal/logging"
	"media-pipeline/internal/maintenance"
	"media-pipeline/internal/media"
	"media-pipeline/internal/memory"
	"media-pipeline/internal/metrics"
	"media-pipeline/internal/middleware"
	"media-pipeline/internal/reconciler"
	"media-pipeline/internal/startup"
	"media-pipeline/internal/storage"
	"media-pipeline/internal/video"
	"media-pipeline/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
	// Derivative generation is CPU-bound; cap the pool regardless of core count.
	maxWorkers = 8
	queueSize  = 256
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, runtime.Version()).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	images, err := storage.Open(config.ImageDir, "images")
	if err != nil {
		startup.LogFatal("Failed to open image storage: %v", err)
	}
	videos, err := storage.Open(config.VideoDir, "videos")
	if err != nil {
		startup.LogFatal("Failed to open video storage: %v", err)
	}

	ctx := context.Background()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Interrupted uploads are removed before any request can reference them.
	sweepStart := time.Now()
	report, sweepErr := maintenance.Sweep(ctx, db, images)
	startup.LogSweep(startup.SweepSummary{
		Images:   len(report.Images),
		Posts:    len(report.Posts),
		Duration: time.Since(sweepStart),
		Err:      sweepErr,
	})

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to baseline JPEG: %v", err)
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	pool := workers.NewPool(workers.ForCPU(maxWorkers), queueSize)

	generator := media.NewGenerator(db, media.NewWriter(images, config.JPEGQuality), media.GeneratorConfig{
		MaxPixelRatio:  config.MaxPixelRatio,
		MaxImagePixels: config.MaxImagePixels,
		Pool:           pool,
		Memory:         monitor,
	})
	startup.LogGeneratorInit(startup.GeneratorSummary{
		Workers:        workers.ForCPU(maxWorkers),
		MaxPixelRatio:  config.MaxPixelRatio,
		MaxImagePixels: config.MaxImagePixels,
		JPEGQuality:    config.JPEGQuality,
		Progressive:    media.IsVipsAvailable(),
	})

	startup.LogFFmpegCheck(config.FFmpegPath)
	frames := video.FFmpeg{Binary: config.FFmpegPath, Timeout: config.FFmpegTimeout}
	videoPipeline := video.NewPipeline(videos, db, generator, frames)

	startup.LogReconcilerInit(config.ReconcileInterval)
	rec := reconciler.New(db, config.ReconcileInterval)
	rec.Start()

	collector := metrics.NewCollector(db, collectorInterval)
	collector.Start()

	h := handlers.New(generator, videoPipeline, db)

	router, handler := newHandler(h, config.MaxUploadSize, config.LogHealthChecks)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, shutdownSteps{
		reconciler: rec,
		pool:       pool,
		monitor:    monitor,
		collector:  collector,
		db:         db,
		stores:     []*storage.Store{images, videos},
	})

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

// newHandler builds the API router and wraps it with request metrics and
// W3C access logging.
func newHandler(h *handlers.Handlers, maxUpload int64, logHealthChecks bool) (*mux.Router, http.Handler) {
	router := mux.NewRouter()
	h.RegisterRoutes(router, maxUpload)
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = logHealthChecks
	return router, middleware.Logger(loggingConfig)(router)
}

// shutdownDone is closed once every component has been stopped.
var shutdownDone = make(chan struct{})

type shutdownSteps struct {
	reconciler *reconciler.Reconciler
	pool       *workers.Pool
	monitor    *memory.Monitor
	collector  *metrics.Collector
	db         *database.Database
	stores     []*storage.Store
}

func handleShutdown(srv, metricsSrv *http.Server, steps shutdownSteps) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownStep("Stopping reconciler")
	steps.reconciler.Stop()
	startup.LogShutdownStepComplete("Reconciler stopped")

	startup.LogShutdownStep("Draining derivative workers")
	if err := steps.pool.Shutdown(ctx); err != nil {
		logging.Warn("Worker pool did not drain: %v", err)
	} else {
		startup.LogShutdownStepComplete("Workers drained")
	}

	steps.monitor.Stop()
	steps.collector.Stop()
	media.ShutdownVips()

	startup.LogShutdownStep("Closing database")
	if err := steps.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}
	for _, s := range steps.stores {
		if err := s.Close(); err != nil {
			logging.Warn("Storage close error: %v", err)
		}
	}

	startup.LogShutdownComplete()
}
