package eventstats

import (
	"context"
	"sync"
	"time"

	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/internal/metrics"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

// Collector accumulates event counts and flushes them to Redis periodically.
// Safe for concurrent use from multiple goroutines.
type Collector struct {
	client        *Client
	flushInterval time.Duration
	logger        *logging.Logger

	mu    sync.Mutex
	batch *Batch

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a collector that flushes to Redis every flushInterval.
func NewCollector(client *Client, flushInterval time.Duration, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Collector{
		client:        client,
		flushInterval: flushInterval,
		logger:        logger.With(logging.Component("eventstats")),
		batch:         NewBatch(),
		ctx:           ctx,
		cancel:        cancel,
	}

	c.wg.Add(1)
	go c.flushLoop()

	return c
}

// Record counts one event for the next flush. A nil Collector ignores it.
func (c *Collector) Record(event schema.StreamEvent) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch.Add(event)
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			// Final flush on shutdown
			c.flush()
			return
		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *Collector) flush() {
	c.mu.Lock()
	batch := c.batch
	c.batch = NewBatch()
	c.mu.Unlock()

	events := batch.Events()
	if events == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	err := c.client.FlushBatch(ctx, batch)
	metrics.StatsFlushDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StatsFlushErrors.Inc()
		c.logger.Error("failed to flush event stats",
			"event_count", events,
			logging.Error(err),
		)
		// Merge back for the next attempt
		c.mu.Lock()
		c.batch.Merge(batch)
		c.mu.Unlock()
		return
	}

	c.logger.Debug("flushed event stats",
		"event_types", len(batch.Types),
		"collections", len(batch.Collections),
		"total_events", events,
	)
}

// FlushNow forces an immediate flush of all accumulated counts.
func (c *Collector) FlushNow() {
	c.flush()
}

// Stop stops the collector and flushes any remaining counts.
func (c *Collector) Stop() {
	c.cancel()
	c.wg.Wait()
}

// Pending returns the per-type counts not yet flushed.
func (c *Collector) Pending() map[schema.EventType]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make(map[schema.EventType]int64, len(c.batch.Types))
	for t, n := range c.batch.Types {
		pending[t] = n
	}
	return pending
}
