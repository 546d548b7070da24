package throughput

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var payloads = map[schema.EventType]schema.Payload{
	schema.EventItemListed:      &schema.ItemListed{},
	schema.EventItemSold:        &schema.ItemSold{},
	schema.EventTraitOffer:      &schema.TraitOffer{},
	schema.EventOrderInvalidate: &schema.OrderInvalidate{},
}

func ofType(t schema.EventType) schema.StreamEvent {
	return schema.StreamEvent{Payload: payloads[t]}
}

func TestMeter_Rates(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := newMeter(clock.now)

	for i := 0; i < 10; i++ {
		m.Record(ofType(schema.EventItemListed))
	}
	for i := 0; i < 4; i++ {
		m.Record(ofType(schema.EventItemSold))
	}
	clock.advance(2 * time.Second)

	snap := m.Snapshot()
	assert.Equal(t, 2*time.Second, snap.Elapsed)
	require.Len(t, snap.Rates, len(schema.EventTypes))

	byType := make(map[schema.EventType]Rate)
	for _, r := range snap.Rates {
		byType[r.EventType] = r
	}
	assert.Equal(t, uint64(10), byType[schema.EventItemListed].Count)
	assert.InDelta(t, 5.0, byType[schema.EventItemListed].PerSecond, 1e-9)
	assert.InDelta(t, 2.0, byType[schema.EventItemSold].PerSecond, 1e-9)
	assert.Zero(t, byType[schema.EventOrderRevalidate].PerSecond)

	assert.Equal(t, uint64(14), snap.Total.Count)
	assert.InDelta(t, 7.0, snap.Total.PerSecond, 1e-9)
}

func TestMeter_ZeroElapsed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := newMeter(clock.now)
	m.Record(ofType(schema.EventTraitOffer))

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Total.Count)
	assert.Zero(t, snap.Total.PerSecond)
}

func TestMeter_Concurrent(t *testing.T) {
	m := NewMeter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(ofType(schema.EventOrderInvalidate))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(800), m.Snapshot().Total.Count)
}

func TestColumn(t *testing.T) {
	for _, et := range schema.EventTypes {
		assert.NotEqual(t, string(et), Column(et), "missing column for %s", et)
	}
	assert.Equal(t, "c_offer", Column(schema.EventCollectionOffer))
	assert.Equal(t, "mystery", Column("mystery"))
}
