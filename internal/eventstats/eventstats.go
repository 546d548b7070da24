// Package eventstats provides Redis-backed marketplace event statistics.
//
// Several consumers may write concurrently. Counters are updated in batches
// and can be read by any process pointed at the same Redis.
//
// Redis Key Structure:
//
//	market:stats:{event_type}                 - Hash with total and last_seen
//	market:hourly:{event_type}:{YYYYMMDDHH}   - Event count for one hour (expires 48h)
//	market:collections:{YYYYMMDD}             - Sorted set of collection slugs by event count (expires 7d)
package eventstats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

const (
	hourlyTTL      = 48 * time.Hour
	collectionsTTL = 7 * 24 * time.Hour

	hourLayout = "2006010215"
	dayLayout  = "20060102"
)

// Stats is the current view of one event type.
type Stats struct {
	EventType        schema.EventType `json:"event_type"`
	LastSeenAt       *time.Time       `json:"last_seen_at,omitempty"`
	TotalEvents      int64            `json:"total_events"`
	EventsLastHour   int64            `json:"events_last_hour"`
	EventsLast24h    int64            `json:"events_last_24h"`
	StatsRetrievedAt time.Time        `json:"stats_retrieved_at"`
}

// CollectionCount is one entry of the daily collection ranking.
type CollectionCount struct {
	Slug   string `json:"slug"`
	Events int64  `json:"events"`
}

// Client records and reads event statistics.
type Client struct {
	redis *redis.Client
	now   func() time.Time
}

// NewClient connects to redisURL and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewClientFromRedis(client), nil
}

// NewClientFromRedis creates a client from an existing Redis connection.
func NewClientFromRedis(client *redis.Client) *Client {
	return &Client{redis: client, now: time.Now}
}

func statsKey(t schema.EventType) string {
	return "market:stats:" + string(t)
}

func hourlyKey(t schema.EventType, at time.Time) string {
	return fmt.Sprintf("market:hourly:%s:%s", t, at.UTC().Format(hourLayout))
}

func collectionsKey(at time.Time) string {
	return "market:collections:" + at.UTC().Format(dayLayout)
}

// Batch accumulates counts between flushes.
type Batch struct {
	Types       map[schema.EventType]int64
	Collections map[string]int64
	LastSeen    map[schema.EventType]time.Time
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{
		Types:       make(map[schema.EventType]int64),
		Collections: make(map[string]int64),
		LastSeen:    make(map[schema.EventType]time.Time),
	}
}

// Add counts one event.
func (b *Batch) Add(event schema.StreamEvent) {
	t := event.Type()
	b.Types[t]++
	if slug := event.CollectionSlug(); slug != "" {
		b.Collections[slug]++
	}
	if sent := event.SentAt.Time; sent.After(b.LastSeen[t]) {
		b.LastSeen[t] = sent
	}
}

// Merge folds other into b.
func (b *Batch) Merge(other *Batch) {
	for t, n := range other.Types {
		b.Types[t] += n
	}
	for slug, n := range other.Collections {
		b.Collections[slug] += n
	}
	for t, seen := range other.LastSeen {
		if seen.After(b.LastSeen[t]) {
			b.LastSeen[t] = seen
		}
	}
}

// Events returns the number of events in the batch.
func (b *Batch) Events() int64 {
	var total int64
	for _, n := range b.Types {
		total += n
	}
	return total
}

// FlushBatch writes accumulated counts to Redis in one pipeline.
func (c *Client) FlushBatch(ctx context.Context, batch *Batch) error {
	if batch.Events() == 0 {
		return nil
	}

	now := c.now()
	pipe := c.redis.Pipeline()

	for t, n := range batch.Types {
		key := statsKey(t)
		pipe.HIncrBy(ctx, key, "total", n)
		if seen, ok := batch.LastSeen[t]; ok && !seen.IsZero() {
			pipe.HSet(ctx, key, "last_seen", strconv.FormatInt(seen.Unix(), 10))
		}

		hourly := hourlyKey(t, now)
		pipe.IncrBy(ctx, hourly, n)
		pipe.Expire(ctx, hourly, hourlyTTL)
	}

	if len(batch.Collections) > 0 {
		day := collectionsKey(now)
		for slug, n := range batch.Collections {
			pipe.ZIncrBy(ctx, day, float64(n), slug)
		}
		pipe.Expire(ctx, day, collectionsTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to flush batch: %w", err)
	}
	return nil
}

// GetStats retrieves current statistics for one event type.
func (c *Client) GetStats(ctx context.Context, eventType schema.EventType) (*Stats, error) {
	now := c.now()

	pipe := c.redis.Pipeline()
	statsCmd := pipe.HGetAll(ctx, statsKey(eventType))

	hourlyCmds := make([]*redis.StringCmd, 24)
	for i := range hourlyCmds {
		hourlyCmds[i] = pipe.Get(ctx, hourlyKey(eventType, now.Add(-time.Duration(i)*time.Hour)))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := &Stats{EventType: eventType, StatsRetrievedAt: now}

	if fields, err := statsCmd.Result(); err == nil {
		if raw, ok := fields["last_seen"]; ok {
			if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
				t := time.Unix(unix, 0).UTC()
				stats.LastSeenAt = &t
			}
		}
		if raw, ok := fields["total"]; ok {
			stats.TotalEvents, _ = strconv.ParseInt(raw, 10, 64)
		}
	}

	for i, cmd := range hourlyCmds {
		val, err := cmd.Int64()
		if err != nil {
			continue
		}
		if i == 0 {
			stats.EventsLastHour = val
		}
		stats.EventsLast24h += val
	}

	return stats, nil
}

// GetAllStats returns statistics for every known event type, in the order of
// schema.EventTypes.
func (c *Client) GetAllStats(ctx context.Context) ([]*Stats, error) {
	all := make([]*Stats, 0, len(schema.EventTypes))
	for _, t := range schema.EventTypes {
		s, err := c.GetStats(ctx, t)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}

// TopCollections returns the n most active collections for the UTC day
// containing day.
func (c *Client) TopCollections(ctx context.Context, day time.Time, n int) ([]CollectionCount, error) {
	if n <= 0 {
		return nil, nil
	}
	entries, err := c.redis.ZRevRangeWithScores(ctx, collectionsKey(day), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to rank collections: %w", err)
	}

	out := make([]CollectionCount, 0, len(entries))
	for _, z := range entries {
		slug, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, CollectionCount{Slug: slug, Events: int64(z.Score)})
	}
	return out, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.redis.Close()
}
