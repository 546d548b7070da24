// Package throughput measures per-type event rates over the life of a
// stream.
package throughput

import (
	"sync"
	"time"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

// Column headers for each event type, in schema.EventTypes order.
var columns = map[schema.EventType]string{
	schema.EventItemListed:          "listings",
	schema.EventItemSold:            "sold",
	schema.EventItemTransferred:     "transfer",
	schema.EventItemMetadataUpdated: "metadata",
	schema.EventItemCancelled:       "cancel",
	schema.EventItemReceivedOffer:   "offer",
	schema.EventItemReceivedBid:     "bid",
	schema.EventCollectionOffer:     "c_offer",
	schema.EventTraitOffer:          "t_offer",
	schema.EventOrderInvalidate:     "invalid",
	schema.EventOrderRevalidate:     "revalid",
}

// Column returns the short header used for t in rate tables.
func Column(t schema.EventType) string {
	if c, ok := columns[t]; ok {
		return c
	}
	return string(t)
}

// Meter counts events by type since it was started. Safe for concurrent use.
type Meter struct {
	mu     sync.Mutex
	start  time.Time
	counts map[schema.EventType]uint64
	now    func() time.Time
}

// NewMeter starts a meter now.
func NewMeter() *Meter {
	return newMeter(time.Now)
}

func newMeter(now func() time.Time) *Meter {
	return &Meter{
		start:  now(),
		counts: make(map[schema.EventType]uint64, len(schema.EventTypes)),
		now:    now,
	}
}

// Record counts one event.
func (m *Meter) Record(event schema.StreamEvent) {
	m.mu.Lock()
	m.counts[event.Type()]++
	m.mu.Unlock()
}

// Rate is one event type's count and average per-second rate.
type Rate struct {
	EventType schema.EventType `json:"event_type"`
	Count     uint64           `json:"count"`
	PerSecond float64          `json:"per_second"`
}

// Snapshot is a point-in-time reading of a Meter.
type Snapshot struct {
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Rates          []Rate        `json:"rates"`
	Total          Rate          `json:"total"`
}

// Snapshot returns counts and rates for every event type in
// schema.EventTypes order. Rates are zero until some time has elapsed.
func (m *Meter) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.now().Sub(m.start)
	snap := Snapshot{
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
		Rates:          make([]Rate, 0, len(schema.EventTypes)),
		Total:          Rate{EventType: "total"},
	}
	for _, t := range schema.EventTypes {
		n := m.counts[t]
		snap.Rates = append(snap.Rates, Rate{EventType: t, Count: n, PerSecond: perSecond(n, elapsed)})
		snap.Total.Count += n
	}
	snap.Total.PerSecond = perSecond(snap.Total.Count, elapsed)
	return snap
}

func perSecond(n uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}
