package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "DERIVATIVE_WORKERS"

// Count returns a worker count of multiplier workers per available CPU,
// capped at limit (0 for no cap). Available CPUs come from GOMAXPROCS,
// which follows container CPU limits.
//
// DERIVATIVE_WORKERS, when set to a positive integer, overrides the
// computed value (still subject to limit).
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
