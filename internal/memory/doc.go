// Package memory keeps derivative generation inside the container's memory
// budget.
//
// Decoded uploads are large: a 24 MP photo is close to 100 MB as NRGBA, and
// every derivative kind allocates its own resized copy. Two things keep
// that from ending in an OOM kill.
//
// # GOMEMLIMIT
//
// [ConfigureFromEnv] sets the Go soft memory limit from the container limit.
// Call it first thing in main.
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and is only reported.
//   - MEMORY_LIMIT: container limit in bytes, usually from the Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     The remainder covers ffmpeg frame extraction and libvips, neither of
//     which GOMEMLIMIT accounts for.
//
// Kubernetes example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// # Backpressure
//
// [Monitor] samples heap usage. Once usage crosses the critical mark,
// [Monitor.WaitIfPaused] blocks new derivations until usage falls below the
// resume mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if !monitor.WaitIfPaused() {
//	    return // shutting down
//	}
//
// GOMEMLIMIT is a soft limit and only covers the Go heap; see
// https://go.dev/doc/gc-guide.
package memory
