// Package nats carries relayed marketplace events over a NATS connection.
package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/common/messaging"
)

// Config mirrors the nats section of the mstream config file.
type Config struct {
	URL   string
	Name  string
	Token string

	// MaxReconnects of -1 retries forever.
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "marketstream",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Client is a messaging.Bus over one NATS connection.
type Client struct {
	conn   *nats.Conn
	logger *logging.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewClient connects to cfg.URL. A nil logger discards connection notices.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With(logging.Component("nats"))

	conn, err := nats.Connect(cfg.URL, connectOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Debug("NATS connected", logging.URL(conn.ConnectedUrlRedacted()))
	return &Client{conn: conn, logger: logger}, nil
}

func connectOptions(cfg Config, logger *logging.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logging.URL(c.ConnectedUrlRedacted()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Debug("NATS connection closed")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	return opts
}

// PublishMsg publishes msg with its metadata as NATS headers.
func (c *Client) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.conn.PublishMsg(toNATS(msg))
}

// Subscribe delivers every message on subject to handler. Handler errors are
// logged with the event's collection.
func (c *Client) Subscribe(subject string, handler messaging.Handler) (messaging.Subscription, error) {
	sub, err := c.conn.Subscribe(subject, func(m *nats.Msg) {
		msg := fromNATS(m, time.Now())
		if err := handler(context.Background(), msg); err != nil {
			c.logger.Warn("relayed message handler failed",
				logging.Subject(msg.Subject),
				logging.Collection(msg.Metadata[messaging.HeaderCollection]),
				logging.Error(err),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return subscription{sub}, nil
}

func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Drain lets queued publishes reach the server before closing.
func (c *Client) Drain() error {
	return c.conn.Drain()
}

// Close unsubscribes everything and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			errs = append(errs, err)
		}
	}
	c.conn.Close()
	return errors.Join(errs...)
}

type subscription struct {
	sub *nats.Subscription
}

func (s subscription) Subject() string    { return s.sub.Subject }
func (s subscription) IsValid() bool      { return s.sub.IsValid() }
func (s subscription) Unsubscribe() error { return s.sub.Unsubscribe() }

func toNATS(msg *messaging.Message) *nats.Msg {
	m := nats.NewMsg(msg.Subject)
	m.Data = msg.Data
	for k, v := range msg.Metadata {
		m.Header.Set(k, v)
	}
	return m
}

func fromNATS(m *nats.Msg, receivedAt time.Time) *messaging.Message {
	msg := &messaging.Message{
		Subject:    m.Subject,
		Data:       m.Data,
		ReceivedAt: receivedAt,
	}
	if len(m.Header) > 0 {
		msg.Metadata = make(map[string]string, len(m.Header))
		for k := range m.Header {
			msg.Metadata[k] = m.Header.Get(k)
		}
	}
	return msg
}

var _ messaging.Bus = (*Client)(nil)
