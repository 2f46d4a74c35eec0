package memory

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"
)

// withCgroupFile points the cgroup limit lookup at a temp file holding
// content, or at a missing path when content is empty.
func withCgroupFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.max")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	old := cgroupMemoryMax
	cgroupMemoryMax = path
	t.Cleanup(func() { cgroupMemoryMax = old })
}

func TestConfigureFromEnv(t *testing.T) {
	oldLimit := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(oldLimit) })

	tests := []struct {
		name        string
		env         map[string]string
		cgroup      string
		wantSource  string
		wantRatio   float64
		wantGoLimit int64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:        "container limit with default ratio",
			env:         map[string]string{"MEMORY_LIMIT": "1000000"},
			wantSource:  "MEMORY_LIMIT",
			wantRatio:   DefaultMemoryRatio,
			wantGoLimit: 850000,
		},
		{
			name:        "container limit with custom ratio",
			env:         map[string]string{"MEMORY_LIMIT": "1000000", "MEMORY_RATIO": "0.5"},
			wantSource:  "MEMORY_LIMIT",
			wantRatio:   0.5,
			wantGoLimit: 500000,
		},
		{
			name:        "out of range ratio falls back to default",
			env:         map[string]string{"MEMORY_LIMIT": "1000000", "MEMORY_RATIO": "1.5"},
			wantSource:  "MEMORY_LIMIT",
			wantRatio:   DefaultMemoryRatio,
			wantGoLimit: 850000,
		},
		{
			name:       "unparseable container limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:        "cgroup limit",
			env:         map[string]string{},
			cgroup:      "2000000\n",
			wantSource:  SourceCgroup,
			wantRatio:   DefaultMemoryRatio,
			wantGoLimit: 1700000,
		},
		{
			name:       "unlimited cgroup",
			env:        map[string]string{},
			cgroup:     "max\n",
			wantSource: "none",
		},
		{
			name:        "environment wins over cgroup",
			env:         map[string]string{"MEMORY_LIMIT": "1000000"},
			cgroup:      "2000000",
			wantSource:  SourceEnv,
			wantRatio:   DefaultMemoryRatio,
			wantGoLimit: 850000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCgroupFile(t, tt.cgroup)
			for _, key := range []string{"GOMEMLIMIT", "MEMORY_LIMIT", "MEMORY_RATIO"} {
				t.Setenv(key, tt.env[key])
			}

			result := ConfigureFromEnv()

			if result.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", result.Source, tt.wantSource)
			}
			if result.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", result.Ratio, tt.wantRatio)
			}
			if result.GoMemLimit != tt.wantGoLimit {
				t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, tt.wantGoLimit)
			}
			if tt.wantGoLimit > 0 && debug.SetMemoryLimit(-1) != tt.wantGoLimit {
				t.Errorf("runtime limit = %d, want %d", debug.SetMemoryLimit(-1), tt.wantGoLimit)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
		3 << 30:         "3.0 GiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
