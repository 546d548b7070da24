package eventstats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/marketstream/internal/feedsim"
	"github.com/telhawk-systems/marketstream/internal/metrics"
	"github.com/telhawk-systems/marketstream/pkg/codec"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewClientFromRedis(rdb)
	c.now = func() time.Time { return fixedNow }
	return c, mr
}

func event(t *testing.T, eventType schema.EventType, slug string, sentAt time.Time) schema.StreamEvent {
	t.Helper()
	raw, err := feedsim.NewGenerator(7, slug).Event(eventType, slug)
	require.NoError(t, err)
	e, err := schema.DecodeEvent(raw)
	require.NoError(t, err)
	e.SentAt = codec.NewTimestamp(sentAt)
	return e
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, c.Close())

	_, err = NewClient(context.Background(), "not a url")
	assert.ErrorContains(t, err, "invalid redis URL")
}

func TestBatch_AddAndMerge(t *testing.T) {
	early := fixedNow.Add(-time.Minute)

	a := NewBatch()
	a.Add(event(t, schema.EventItemSold, "neon-vortex-1", early))
	a.Add(event(t, schema.EventItemSold, "neon-vortex-1", fixedNow))
	a.Add(event(t, schema.EventItemListed, "pixel-pals", early))

	b := NewBatch()
	b.Add(event(t, schema.EventItemListed, "pixel-pals", fixedNow))

	a.Merge(b)

	assert.Equal(t, int64(4), a.Events())
	assert.Equal(t, int64(2), a.Types[schema.EventItemSold])
	assert.Equal(t, int64(2), a.Types[schema.EventItemListed])
	assert.Equal(t, int64(2), a.Collections["neon-vortex-1"])
	assert.Equal(t, int64(2), a.Collections["pixel-pals"])
	assert.True(t, a.LastSeen[schema.EventItemSold].Equal(fixedNow))
	assert.True(t, a.LastSeen[schema.EventItemListed].Equal(fixedNow))
}

func TestFlushBatch_WritesKeys(t *testing.T) {
	c, mr := newTestClient(t)

	batch := NewBatch()
	for i := 0; i < 3; i++ {
		batch.Add(event(t, schema.EventItemSold, "neon-vortex-1", fixedNow))
	}
	batch.Add(event(t, schema.EventItemListed, "pixel-pals", fixedNow))

	require.NoError(t, c.FlushBatch(context.Background(), batch))

	assert.Equal(t, "3", mr.HGet("market:stats:item_sold", "total"))
	assert.Equal(t, "1709994600", mr.HGet("market:stats:item_sold", "last_seen"))

	hourly, err := mr.Get("market:hourly:item_sold:2024030914")
	require.NoError(t, err)
	assert.Equal(t, "3", hourly)
	assert.Equal(t, 48*time.Hour, mr.TTL("market:hourly:item_sold:2024030914"))

	score, err := mr.ZScore("market:collections:20240309", "neon-vortex-1")
	require.NoError(t, err)
	assert.Equal(t, float64(3), score)
	assert.Equal(t, 7*24*time.Hour, mr.TTL("market:collections:20240309"))
}

func TestFlushBatch_Empty(t *testing.T) {
	c, mr := newTestClient(t)

	require.NoError(t, c.FlushBatch(context.Background(), NewBatch()))
	assert.Empty(t, mr.Keys())
}

func TestGetStats(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	batch := NewBatch()
	batch.Add(event(t, schema.EventItemTransferred, "neon-vortex-1", fixedNow))
	batch.Add(event(t, schema.EventItemTransferred, "neon-vortex-1", fixedNow))
	require.NoError(t, c.FlushBatch(ctx, batch))

	require.NoError(t, mr.Set("market:hourly:item_transferred:2024030913", "5"))
	require.NoError(t, mr.Set("market:hourly:item_transferred:2024030814", "100"))

	stats, err := c.GetStats(ctx, schema.EventItemTransferred)
	require.NoError(t, err)

	assert.Equal(t, schema.EventItemTransferred, stats.EventType)
	assert.Equal(t, int64(2), stats.TotalEvents)
	assert.Equal(t, int64(2), stats.EventsLastHour)
	assert.Equal(t, int64(7), stats.EventsLast24h)
	require.NotNil(t, stats.LastSeenAt)
	assert.True(t, stats.LastSeenAt.Equal(fixedNow))
	assert.Equal(t, fixedNow, stats.StatsRetrievedAt)
}

func TestGetStats_Unknown(t *testing.T) {
	c, _ := newTestClient(t)

	stats, err := c.GetStats(context.Background(), schema.EventOrderInvalidate)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEvents)
	assert.Nil(t, stats.LastSeenAt)
}

func TestGetAllStats(t *testing.T) {
	c, _ := newTestClient(t)

	all, err := c.GetAllStats(context.Background())
	require.NoError(t, err)
	require.Len(t, all, len(schema.EventTypes))
	for i, s := range all {
		assert.Equal(t, schema.EventTypes[i], s.EventType)
	}
}

func TestTopCollections(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	batch := NewBatch()
	for slug, n := range map[string]int{"neon-vortex-1": 5, "pixel-pals": 2, "quiet-owls": 9} {
		for i := 0; i < n; i++ {
			batch.Add(event(t, schema.EventItemListed, slug, fixedNow))
		}
	}
	require.NoError(t, c.FlushBatch(ctx, batch))

	top, err := c.TopCollections(ctx, fixedNow, 2)
	require.NoError(t, err)
	assert.Equal(t, []CollectionCount{
		{Slug: "quiet-owls", Events: 9},
		{Slug: "neon-vortex-1", Events: 5},
	}, top)

	none, err := c.TopCollections(ctx, fixedNow.Add(-48*time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	none, err = c.TopCollections(ctx, fixedNow, 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCollector_StopFlushes(t *testing.T) {
	c, mr := newTestClient(t)

	col := NewCollector(c, time.Hour, nil)
	col.Record(event(t, schema.EventItemReceivedBid, "neon-vortex-1", fixedNow))
	col.Record(event(t, schema.EventItemReceivedBid, "neon-vortex-1", fixedNow))

	assert.Equal(t, map[schema.EventType]int64{schema.EventItemReceivedBid: 2}, col.Pending())

	col.Stop()

	assert.Equal(t, "2", mr.HGet("market:stats:item_received_bid", "total"))
	assert.Empty(t, col.Pending())
}

func TestCollector_FlushOnInterval(t *testing.T) {
	c, mr := newTestClient(t)

	col := NewCollector(c, 10*time.Millisecond, nil)
	defer col.Stop()

	col.Record(event(t, schema.EventCollectionOffer, "neon-vortex-1", fixedNow))

	assert.Eventually(t, func() bool {
		return mr.HGet("market:stats:collection_offer", "total") == "1"
	}, time.Second, 10*time.Millisecond)
}

func TestCollector_FailedFlushIsRetained(t *testing.T) {
	c, mr := newTestClient(t)

	col := NewCollector(c, time.Hour, nil)
	col.Record(event(t, schema.EventItemCancelled, "neon-vortex-1", fixedNow))

	before := testutil.ToFloat64(metrics.StatsFlushErrors)
	mr.Close()
	col.FlushNow()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StatsFlushErrors))
	assert.Equal(t, map[schema.EventType]int64{schema.EventItemCancelled: 1}, col.Pending())

	col.Stop()
}
