package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"media-pipeline/internal/database"
	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
)

// DefaultInterval is the pause between passes when none is configured.
const DefaultInterval = 10 * time.Second

// Store is the persistence a pass reads and updates.
type Store interface {
	PendingPosts(ctx context.Context) ([]database.Post, error)
	GetImageByIdentifier(ctx context.Context, identifier string) (*database.Image, error)
	GetVideo(ctx context.Context, id int64) (*database.Video, error)
	MarkPostProcessed(ctx context.Context, id, version int64) (bool, error)
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	Checked  int
	Promoted int
	// Stale counts posts that were ready but changed during the pass.
	Stale int
}

// Reconciler runs reconciliation passes on a fixed interval.
type Reconciler struct {
	store    Store
	interval time.Duration
	log      logging.Logger

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	passMu   sync.Mutex
}

// New creates a Reconciler. A non-positive interval uses DefaultInterval.
func New(store Store, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		store:    store,
		interval: interval,
		log:      logging.For("reconciler"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. The first pass runs immediately.
func (r *Reconciler) Start() {
	if r.started.Swap(true) {
		return
	}
	r.log.Info("Starting with %v interval", r.interval)
	go r.loop()
}

// Stop signals the loop and waits for it to exit. A pass already running
// completes first.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	if !r.started.Load() {
		return
	}
	<-r.done
	r.log.Info("Stopped")
}

func (r *Reconciler) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.runScheduledPass()

		select {
		case <-ticker.C:
		case <-r.stopChan:
			return
		}
	}
}

func (r *Reconciler) runScheduledPass() {
	// Passes are never interrupted, so they do not inherit a stop signal.
	if _, err := r.RunPass(context.Background()); err != nil {
		r.log.Error("Pass failed: %v", err)
	}
}

// RunPass evaluates every pending post once. Per-post failures are logged
// and reported in the returned error after the remaining posts are checked.
func (r *Reconciler) RunPass(ctx context.Context) (PassResult, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	start := time.Now()
	metrics.ReconcilerIsRunning.Set(1)
	defer metrics.ReconcilerIsRunning.Set(0)

	var res PassResult
	posts, err := r.store.PendingPosts(ctx)
	if err != nil {
		metrics.ReconcilerPassesTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("list pending posts: %w", err)
	}

	var errs []error
	for _, post := range posts {
		res.Checked++

		ready, err := r.ready(ctx, post)
		if err != nil {
			errs = append(errs, fmt.Errorf("post %d: %w", post.ID, err))
			continue
		}
		if !ready {
			continue
		}

		flipped, err := r.store.MarkPostProcessed(ctx, post.ID, post.Version)
		if err != nil {
			errs = append(errs, fmt.Errorf("mark post %d processed: %w", post.ID, err))
			continue
		}
		if !flipped {
			res.Stale++
			metrics.ReconcilerStaleVersions.Inc()
			r.log.Debug("Post %d changed during pass, deferring", post.ID)
			continue
		}
		res.Promoted++
		metrics.ReconcilerPostsPromoted.Inc()
	}

	metrics.ReconcilerPassDuration.Observe(time.Since(start).Seconds())
	status := "success"
	if len(errs) > 0 {
		status = "error"
	}
	metrics.ReconcilerPassesTotal.WithLabelValues(status).Inc()

	if res.Promoted > 0 || res.Stale > 0 {
		r.log.Info("Pass complete: %d checked, %d promoted, %d deferred", res.Checked, res.Promoted, res.Stale)
	}
	return res, errors.Join(errs...)
}

// ready reports whether every piece of media the post references is processed.
func (r *Reconciler) ready(ctx context.Context, post database.Post) (bool, error) {
	if post.VideoID != nil {
		v, err := r.store.GetVideo(ctx, *post.VideoID)
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return v.Processed, nil
	}

	for _, ident := range post.ImageIdentifiers {
		img, err := r.store.GetImageByIdentifier(ctx, ident)
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !img.Processed {
			return false, nil
		}
	}
	return true, nil
}
