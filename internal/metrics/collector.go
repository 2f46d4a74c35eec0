package metrics

import (
	"context"
	"time"

	"media-pipeline/internal/logging"
)

// StatsProvider reports counts of in-flight pipeline state.
type StatsProvider interface {
	PipelineStats(ctx context.Context) (Stats, error)
}

// connectionReporter is implemented by providers that can also refresh
// connection pool gauges.
type connectionReporter interface {
	UpdateDBMetrics()
}

// Stats holds the current pipeline backlog.
type Stats struct {
	PendingPosts      int
	UnprocessedImages int
	Videos            int
}

// Collector periodically refreshes the backlog gauges.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	if r, ok := c.provider.(connectionReporter); ok {
		r.UpdateDBMetrics()
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	stats, err := c.provider.PipelineStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	PendingPosts.Set(float64(stats.PendingPosts))
	UnprocessedImages.Set(float64(stats.UnprocessedImages))
	StoredVideos.Set(float64(stats.Videos))

	logging.Debug("Metrics collected: pending_posts=%d, unprocessed_images=%d, videos=%d",
		stats.PendingPosts, stats.UnprocessedImages, stats.Videos)
}
