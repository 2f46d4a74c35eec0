package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"media-pipeline/internal/logging"
)

// Config holds all application configuration
type Config struct {
	ImageDir          string
	VideoDir          string
	DatabaseDir       string
	Port              string
	MetricsPort       string
	ReconcileInterval time.Duration
	JPEGQuality       int
	MaxPixelRatio     int
	MaxImagePixels    int
	MaxUploadSize     int64
	FFmpegPath        string
	FFmpegTimeout     time.Duration
	LogHealthChecks   bool
	MetricsEnabled    bool

	// Derived paths
	DatabasePath string
}

const (
	defaultReconcileInterval = 10 * time.Second
	defaultJPEGQuality       = 85
	defaultMaxPixelRatio     = 3
	defaultMaxImagePixels    = 50_000_000
	defaultMaxUploadSize     = 64 << 20
	defaultFFmpegTimeout     = 30 * time.Second
)

// LoadConfig reads the environment, logs the result, and makes sure every
// storage directory exists and is writable.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}
	logConfig(config)

	section("DIRECTORY SETUP")
	for _, dir := range []struct{ path, name string }{
		{config.ImageDir, "image"},
		{config.VideoDir, "video"},
		{config.DatabaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", dir.name, dir.path)
	}

	return config, nil
}

// configFromEnv reads and validates the environment without touching disk.
// Out-of-range values are logged and replaced by their defaults.
func configFromEnv() (*Config, error) {
	c := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", defaultReconcileInterval),
		JPEGQuality:       getEnvInt("JPEG_QUALITY", defaultJPEGQuality),
		MaxPixelRatio:     getEnvInt("MAX_PIXEL_RATIO", defaultMaxPixelRatio),
		MaxImagePixels:    getEnvInt("MAX_IMAGE_PIXELS", defaultMaxImagePixels),
		MaxUploadSize:     getEnvInt64("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		FFmpegTimeout:     getEnvDuration("FFMPEG_TIMEOUT", defaultFFmpegTimeout),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", false),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		logging.Warn("  JPEG_QUALITY %d out of range (1-100), using default: %d", c.JPEGQuality, defaultJPEGQuality)
		c.JPEGQuality = defaultJPEGQuality
	}
	if c.MaxPixelRatio < 1 {
		logging.Warn("  MAX_PIXEL_RATIO must be at least 1, using default: %d", defaultMaxPixelRatio)
		c.MaxPixelRatio = defaultMaxPixelRatio
	}
	if c.MaxImagePixels < 1 {
		logging.Warn("  MAX_IMAGE_PIXELS must be positive, using default: %d", defaultMaxImagePixels)
		c.MaxImagePixels = defaultMaxImagePixels
	}
	if c.MaxUploadSize < 1 {
		logging.Warn("  MAX_UPLOAD_SIZE must be positive, using default: %d", defaultMaxUploadSize)
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if c.ReconcileInterval <= 0 {
		logging.Warn("  RECONCILE_INTERVAL must be positive, using default: %v", defaultReconcileInterval)
		c.ReconcileInterval = defaultReconcileInterval
	}
	if c.FFmpegTimeout <= 0 {
		logging.Warn("  FFMPEG_TIMEOUT must be positive, using default: %v", defaultFFmpegTimeout)
		c.FFmpegTimeout = defaultFFmpegTimeout
	}

	var err error
	for _, d := range []struct {
		dst      *string
		key, def string
	}{
		{&c.ImageDir, "IMAGE_DIR", "/data/images"},
		{&c.VideoDir, "VIDEO_DIR", "/data/videos"},
		{&c.DatabaseDir, "DATABASE_DIR", "/database"},
	} {
		*d.dst, err = filepath.Abs(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", d.key, err)
		}
	}

	c.DatabasePath = filepath.Join(c.DatabaseDir, "media.db")
	return c, nil
}

func logConfig(c *Config) {
	section("CONFIGURATION")
	for _, kv := range [][2]string{
		{"IMAGE_DIR", c.ImageDir},
		{"VIDEO_DIR", c.VideoDir},
		{"DATABASE_DIR", c.DatabaseDir},
		{"PORT", c.Port},
		{"METRICS_PORT", c.MetricsPort},
		{"METRICS_ENABLED", strconv.FormatBool(c.MetricsEnabled)},
		{"RECONCILE_INTERVAL", c.ReconcileInterval.String()},
		{"JPEG_QUALITY", strconv.Itoa(c.JPEGQuality)},
		{"MAX_PIXEL_RATIO", strconv.Itoa(c.MaxPixelRatio)},
		{"MAX_IMAGE_PIXELS", strconv.Itoa(c.MaxImagePixels)},
		{"MAX_UPLOAD_SIZE", strconv.FormatInt(c.MaxUploadSize, 10) + " bytes"},
		{"FFMPEG_PATH", c.FFmpegPath},
		{"FFMPEG_TIMEOUT", c.FFmpegTimeout.String()},
		{"LOG_HEALTH_CHECKS", strconv.FormatBool(c.LogHealthChecks)},
		{"LOG_LEVEL", logging.GetLevel().String()},
	} {
		logging.Info("  %-20s %s", kv[0]+":", kv[1])
	}
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("  Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	probe, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		logging.Warn("failed to close write probe %s: %v", name, err)
	}
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write probe %s: %v", name, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv parses key with parse, logging and returning def when the value
// is missing or malformed.
func lookupEnv[T any](key string, def T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		logging.Warn("Invalid value for %s: %q, using default: %v", key, value, def)
		return def
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, strconv.Atoi)
}

func getEnvInt64(key string, defaultValue int64) int64 {
	return lookupEnv(key, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, time.ParseDuration)
}

func getEnvBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, strconv.ParseBool)
}
