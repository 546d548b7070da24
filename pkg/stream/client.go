// Package stream is a client for the marketplace event feed.
//
//	client, err := stream.Connect(ctx, stream.Mainnet, apiKey)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.Subscribe(stream.Collection("neon-vortex-1")); err != nil {
//		return err
//	}
//	for {
//		event, ok := client.NextEvent()
//		if !ok {
//			return client.Err()
//		}
//		switch p := event.Payload.(type) {
//		case *schema.ItemSold:
//			...
//		}
//	}
//
// The client does not reconnect. When the connection drops NextEvent returns
// false and Err reports why.
package stream

import (
	"context"
	"time"

	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/internal/session"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

// Re-exported session errors.
var (
	ErrClosed            = session.ErrSessionClosed
	ErrProtocolViolation = session.ErrProtocolViolation
	ErrTransportClosed   = session.ErrTransportClosed
)

// Client is a connected feed subscription.
type Client struct {
	session *session.Session
}

type options struct {
	logger   *logging.Logger
	cfg      session.Config
	endpoint string
	dialer   session.Dialer
}

// Option configures Connect.
type Option func(*options)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHeartbeatInterval overrides the 30s heartbeat period.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) { o.cfg.HeartbeatInterval = d }
}

// WithQueueSizes overrides the outbound frame and inbound event queue capacities.
func WithQueueSizes(outbound, inbound int) Option {
	return func(o *options) {
		o.cfg.OutboundQueue = outbound
		o.cfg.InboundQueue = inbound
	}
}

// WithEndpoint replaces the network's endpoint, e.g. with a local simulator.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithDialer replaces the WebSocket transport.
func WithDialer(d session.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// Connect opens a session to network authenticated with apiKey. It fails if
// the handshake fails; there is no retry.
func Connect(ctx context.Context, network Network, apiKey string, opts ...Option) (*Client, error) {
	o := options{
		cfg:      session.DefaultConfig(),
		endpoint: network.Endpoint(),
		dialer:   session.WebsocketDialer{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	rawURL, err := connectURL(o.endpoint, apiKey)
	if err != nil {
		return nil, err
	}

	s, err := session.Open(ctx, o.dialer, rawURL, o.cfg, o.logger)
	if err != nil {
		return nil, err
	}
	return &Client{session: s}, nil
}

// Subscribe joins topic. Joins are queued, so it may be called right after
// Connect.
func (c *Client) Subscribe(topic Topic) error {
	return c.session.Subscribe(topic.String())
}

// NextEvent blocks for the next event. It returns false once the stream has
// ended and every buffered event has been consumed.
func (c *Client) NextEvent() (schema.StreamEvent, bool) {
	return c.session.Next()
}

// Close ends the stream.
func (c *Client) Close() error {
	return c.session.Close()
}

// Done is closed when the stream ends.
func (c *Client) Done() <-chan struct{} {
	return c.session.Done()
}

// Err reports why the stream ended, or nil.
func (c *Client) Err() error {
	return c.session.Err()
}

// SessionID identifies this connection in logs.
func (c *Client) SessionID() string {
	return c.session.ID()
}
