package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for DecodeDrops.
const (
	ReasonEnvelope    = "envelope"
	ReasonUnknownType = "unknown_event_type"
	ReasonSchema      = "schema"
)

var (
	// Session metrics
	SessionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketstream_sessions_open",
			Help: "Number of stream sessions currently open",
		},
	)

	SessionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_sessions_closed_total",
			Help: "Total number of stream sessions closed, by cause",
		},
		[]string{"cause"},
	)

	// Frame metrics
	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_frames_received_total",
			Help: "Total number of transport frames received",
		},
		[]string{"kind"},
	)

	FramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_frames_sent_total",
			Help: "Total number of channel frames sent",
		},
		[]string{"event"},
	)

	HeartbeatsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketstream_heartbeats_enqueued_total",
			Help: "Total number of heartbeat frames enqueued",
		},
	)

	RepliesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_replies_received_total",
			Help: "Total number of push replies received",
		},
		[]string{"status"},
	)

	// Decode metrics
	EventsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_events_decoded_total",
			Help: "Total number of marketplace events decoded",
		},
		[]string{"event_type"},
	)

	DecodeDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_decode_drops_total",
			Help: "Total number of inbound messages dropped because they could not be decoded",
		},
		[]string{"reason"},
	)

	// Queue metrics
	InboundQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketstream_inbound_queue_depth",
			Help: "Current depth of the decoded event queue",
		},
	)

	InboundQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketstream_inbound_queue_capacity",
			Help: "Maximum capacity of the decoded event queue",
		},
	)

	// Relay metrics
	EventsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketstream_events_relayed_total",
			Help: "Total number of events published to the message bus",
		},
		[]string{"event_type", "status"},
	)

	// Stats metrics
	StatsFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketstream_stats_flush_duration_seconds",
			Help:    "Duration of event stats flushes to Redis in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StatsFlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketstream_stats_flush_errors_total",
			Help: "Total number of failed event stats flushes",
		},
	)
)
