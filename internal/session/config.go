package session

import "time"

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultOutboundQueue     = 4
	DefaultInboundQueue      = 1024
)

// Config holds session tuning knobs. Zero values take the defaults.
type Config struct {
	HeartbeatInterval time.Duration
	OutboundQueue     int
	InboundQueue      int
}

// DefaultConfig returns the defaults the feed is designed around.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: DefaultHeartbeatInterval,
		OutboundQueue:     DefaultOutboundQueue,
		InboundQueue:      DefaultInboundQueue,
	}
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.OutboundQueue <= 0 {
		c.OutboundQueue = DefaultOutboundQueue
	}
	if c.InboundQueue <= 0 {
		c.InboundQueue = DefaultInboundQueue
	}
	return c
}
