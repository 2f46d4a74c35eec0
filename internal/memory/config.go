package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"media-pipeline/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for libvips and ffmpeg, which allocate outside it.
const DefaultMemoryRatio = 0.85

// Limit sources reported in ConfigResult.Source.
const (
	SourceGoMemLimit   = "GOMEMLIMIT"
	SourceEnv          = "MEMORY_LIMIT"
	SourceCgroup       = "cgroup"
	SourceUnconfigured = "none"
)

// cgroupMemoryMax is the cgroup v2 limit file. Tests point it elsewhere.
var cgroupMemoryMax = "/sys/fs/cgroup/memory.max"

// ConfigResult describes how the heap limit was chosen.
type ConfigResult struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets the runtime memory limit before the pipeline starts
// allocating decode buffers. The first source found wins:
//   - GOMEMLIMIT, already applied by the runtime; only reported here
//   - MEMORY_LIMIT in bytes, typically from the Kubernetes Downward API
//   - the cgroup v2 memory.max of the current container
//
// MEMORY_RATIO (0 < r <= 1) scales the container limit.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: SourceGoMemLimit}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	containerLimit, source := containerMemoryLimit()
	if containerLimit <= 0 {
		logging.Debug("No container memory limit found, GOMEMLIMIT left unset")
		return ConfigResult{Source: SourceUnconfigured}
	}

	ratio := memoryRatio()
	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s from %s)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit), source)

	return ConfigResult{
		Configured:     true,
		Source:         source,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func containerMemoryLimit() (int64, string) {
	if raw := os.Getenv("MEMORY_LIMIT"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		} else {
			return limit, SourceEnv
		}
	}

	data, err := os.ReadFile(cgroupMemoryMax)
	if err != nil {
		return 0, ""
	}
	value := strings.TrimSpace(string(data))
	if value == "max" {
		return 0, ""
	}
	limit, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Unreadable cgroup memory limit %q: %v", value, err)
		return 0, ""
	}
	return limit, SourceCgroup
}

func memoryRatio() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes renders b with binary units, e.g. "1.5 GiB".
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
