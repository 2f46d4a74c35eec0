package filesystem

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu        sync.Mutex
	ops       []string
	attempts  int
	successes int
	failures  int
	stale     int
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ float64, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, volume+":"+operation)
}

func (r *recordingObserver) ObserveRetryAttempt(_, _ string) {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
}
func (r *recordingObserver) ObserveRetrySuccess(_, _ string) {
	r.mu.Lock()
	r.successes++
	r.mu.Unlock()
}
func (r *recordingObserver) ObserveRetryFailure(_, _ string) {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
}
func (r *recordingObserver) ObserveStaleError(_, _ string) { r.mu.Lock(); r.stale++; r.mu.Unlock() }

func withObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.volume() != "unknown" {
		t.Errorf("default volume = %q, want unknown", config.volume())
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryRecoversFromStaleHandle(t *testing.T) {
	obs := withObserver(t)
	calls := 0
	cfg := fastConfig()
	cfg.Volume = "images"

	err := retry("read", "/tmp/x", cfg, func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 || obs.failures != 0 {
		t.Errorf("observer = stale %d attempts %d successes %d failures %d",
			obs.stale, obs.attempts, obs.successes, obs.failures)
	}
	if len(obs.ops) != 1 || obs.ops[0] != "images:read" {
		t.Errorf("operation observations = %v, want [images:read]", obs.ops)
	}
}

func TestRetryGivesUp(t *testing.T) {
	obs := withObserver(t)
	calls := 0

	err := retry("write", "/tmp/x", fastConfig(), func() error {
		calls++
		return syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("err = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	withObserver(t)
	calls := 0
	want := errors.New("permission denied")

	err := retry("stat", "/tmp/x", fastConfig(), func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestFileOperations(t *testing.T) {
	withObserver(t)
	root := t.TempDir()
	dir := filepath.Join(root, "abc")
	file := filepath.Join(dir, "post_1x.jpg")
	cfg := fastConfig()

	if err := MkdirAllWithRetry(dir, 0o755, cfg); err != nil {
		t.Fatalf("MkdirAllWithRetry: %v", err)
	}
	if err := WriteFileWithRetry(file, []byte("jpeg"), 0o644, cfg); err != nil {
		t.Fatalf("WriteFileWithRetry: %v", err)
	}

	info, err := StatWithRetry(file, cfg)
	if err != nil {
		t.Fatalf("StatWithRetry: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("size = %d, want 4", info.Size())
	}

	data, err := ReadFileWithRetry(file, cfg)
	if err != nil {
		t.Fatalf("ReadFileWithRetry: %v", err)
	}
	if !bytes.Equal(data, []byte("jpeg")) {
		t.Errorf("data = %q", data)
	}

	if err := RemoveAllWithRetry(dir, cfg); err != nil {
		t.Fatalf("RemoveAllWithRetry: %v", err)
	}
	if _, err := StatWithRetry(dir, cfg); !os.IsNotExist(err) {
		t.Errorf("expected not-exist after remove, got %v", err)
	}
}
