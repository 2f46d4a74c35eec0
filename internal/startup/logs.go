package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"media-pipeline/internal/logging"
)

const rule = "------------------------------------------------------------"

// section starts a titled block in the startup log.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println(rule)
	fmt.Println("  media-pipeline: image and video derivative service")
	fmt.Println(rule)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:        %s", hostname)
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// SweepSummary is what LogSweep reports about the startup sweep.
type SweepSummary struct {
	Images   int
	Posts    int
	Duration time.Duration
	Err      error
}

// LogSweep logs the result of the startup maintenance sweep
func LogSweep(summary SweepSummary) {
	section("MAINTENANCE SWEEP")
	if summary.Err != nil {
		logging.Warn("  Sweep finished with errors: %v", summary.Err)
	}
	logging.Info("  [OK] Removed %d interrupted uploads and %d posts in %v",
		summary.Images, summary.Posts, summary.Duration)
}

// LogFFmpegCheck logs whether video frame extraction is available and
// reports the result.
func LogFFmpegCheck(binary string) bool {
	section("VIDEO PIPELINE INITIALIZATION")
	version, err := ffmpegVersion(binary)
	if err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video uploads will fail until %s is installed", binary)
		return false
	}
	logging.Info("  [OK] %s", version)
	return true
}

func ffmpegVersion(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", binary)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first), nil
}

// GeneratorSummary describes the derivative generator configuration.
type GeneratorSummary struct {
	Workers        int
	MaxPixelRatio  int
	MaxImagePixels int
	JPEGQuality    int
	Progressive    bool
}

// LogGeneratorInit logs derivative generator initialization
func LogGeneratorInit(summary GeneratorSummary) {
	section("DERIVATIVE GENERATOR INITIALIZATION")
	logging.Info("  Background workers: %d", summary.Workers)
	logging.Info("  Pixel ratios:       1..%d", summary.MaxPixelRatio)
	logging.Info("  JPEG quality:       %d", summary.JPEGQuality)
	logging.Info("  Max image pixels:   %d", summary.MaxImagePixels)
	if summary.Progressive {
		logging.Info("  Encoding:           progressive (libvips)")
	} else {
		logging.Warn("  Encoding:           baseline (libvips unavailable)")
	}
}

// LogReconcilerInit logs reconciler initialization
func LogReconcilerInit(interval time.Duration) {
	section("RECONCILER INITIALIZATION")
	logging.Info("  Poll interval: %v", interval)
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
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Application:     http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
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
