// Package messaging is the broker surface relayed marketplace events travel
// over: the relay publishes them and `mstream relay tail` reads them back.
package messaging

import (
	"context"
	"time"
)

// Message is one relayed event on the bus.
type Message struct {
	Subject string
	// Data is the event's JSON encoding.
	Data []byte
	// Metadata holds the Market-* headers.
	Metadata map[string]string
	// ReceivedAt is set on delivery and zero on outbound messages.
	ReceivedAt time.Time
}

// Handler is called once per delivered message. A returned error is logged by
// the broker client and does not stop the subscription.
type Handler func(ctx context.Context, msg *Message) error

// Subscription is a live interest in a subject.
type Subscription interface {
	Subject() string
	// IsValid turns false once the subscription can no longer deliver, for
	// example after the connection closed for good.
	IsValid() bool
	Unsubscribe() error
}

// Publisher sends messages. The relay only needs this half.
type Publisher interface {
	PublishMsg(ctx context.Context, msg *Message) error
}

// Subscriber registers handlers on subjects.
type Subscriber interface {
	Subscribe(subject string, handler Handler) (Subscription, error)
}

// Bus is a broker connection as the relay commands hold it.
type Bus interface {
	Publisher
	Subscriber

	// IsConnected backs the nats check on /healthz.
	IsConnected() bool
	// Drain flushes pending publishes, then closes.
	Drain() error
	Close() error
}
