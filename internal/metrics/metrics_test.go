package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct {
	mu    sync.Mutex
	stats Stats
	err   error
	calls int
}

func (f *fakeStats) PipelineStats(_ context.Context) (Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.stats, f.err
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(DerivativeGenerationsTotal); got != 4 {
		t.Errorf("DerivativeGenerationsTotal series = %d, want 4", got)
	}
	if got := testutil.CollectAndCount(DerivativesWrittenTotal); got != 7 {
		t.Errorf("DerivativesWrittenTotal series = %d, want 7", got)
	}
}

func TestCollectorCollect(t *testing.T) {
	provider := &fakeStats{stats: Stats{PendingPosts: 3, UnprocessedImages: 5, Videos: 2}}
	c := NewCollector(provider, time.Second)

	c.collect()

	if got := testutil.ToFloat64(PendingPosts); got != 3 {
		t.Errorf("PendingPosts = %v, want 3", got)
	}
	if got := testutil.ToFloat64(UnprocessedImages); got != 5 {
		t.Errorf("UnprocessedImages = %v, want 5", got)
	}
	if got := testutil.ToFloat64(StoredVideos); got != 2 {
		t.Errorf("StoredVideos = %v, want 2", got)
	}
}

func TestCollectorKeepsLastValueOnError(t *testing.T) {
	provider := &fakeStats{stats: Stats{PendingPosts: 7}}
	c := NewCollector(provider, time.Second)
	c.collect()

	provider.mu.Lock()
	provider.stats = Stats{PendingPosts: 99}
	provider.err = errors.New("database is locked")
	provider.mu.Unlock()
	c.collect()

	if got := testutil.ToFloat64(PendingPosts); got != 7 {
		t.Errorf("PendingPosts = %v, want 7 after failed collection", got)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Second)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &fakeStats{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()
	time.Sleep(35 * time.Millisecond)
	c.Stop()

	provider.mu.Lock()
	calls := provider.calls
	provider.mu.Unlock()
	if calls < 2 {
		t.Errorf("expected at least 2 collections, got %d", calls)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("images", "write"))
	obs.ObserveOperation("images", "write", 0.01, errors.New("disk full"))
	obs.ObserveOperation("images", "write", 0.01, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("images", "write"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}

	beforeStale := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("read", "videos"))
	obs.ObserveStaleError("read", "videos")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("read", "videos")); got-beforeStale != 1 {
		t.Errorf("stale counter delta = %v, want 1", got-beforeStale)
	}
}
