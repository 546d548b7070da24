// Package relay republishes decoded marketplace events onto the message bus,
// one subject per event type.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/common/messaging"
	"github.com/telhawk-systems/marketstream/internal/metrics"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

// Source yields events until it is exhausted.
type Source interface {
	NextEvent() (schema.StreamEvent, bool)
}

// Relay publishes events to a messaging.Publisher.
type Relay struct {
	pub    messaging.Publisher
	logger *logging.Logger
}

// New creates a Relay.
func New(pub messaging.Publisher, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Relay{pub: pub, logger: logger.With(logging.Component("relay"))}
}

// Forward publishes one event to market.events.<event_type>.
func (r *Relay) Forward(ctx context.Context, event schema.StreamEvent) error {
	eventType := string(event.Type())
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsRelayed.WithLabelValues(eventType, "encode_error").Inc()
		return fmt.Errorf("relay: encode %s: %w", eventType, err)
	}

	msg := &messaging.Message{
		Subject:  messaging.EventSubject(eventType),
		Data:     data,
		Metadata: Headers(event),
	}
	if err := r.pub.PublishMsg(ctx, msg); err != nil {
		metrics.EventsRelayed.WithLabelValues(eventType, "publish_error").Inc()
		return fmt.Errorf("relay: publish %s: %w", msg.Subject, err)
	}
	metrics.EventsRelayed.WithLabelValues(eventType, "ok").Inc()
	return nil
}

// Run forwards events from src until it is exhausted or ctx is done. Publish
// failures are logged and skipped. It returns the number of events relayed.
func (r *Relay) Run(ctx context.Context, src Source) (int, error) {
	relayed := 0
	for {
		if err := ctx.Err(); err != nil {
			return relayed, err
		}
		event, ok := src.NextEvent()
		if !ok {
			return relayed, nil
		}
		if err := r.Forward(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "relay failed",
				logging.EventType(string(event.Type())),
				logging.Collection(event.CollectionSlug()),
				logging.Error(err),
			)
			continue
		}
		relayed++
	}
}

// Headers returns the message headers describing event.
func Headers(event schema.StreamEvent) map[string]string {
	h := map[string]string{
		messaging.HeaderEventType:  string(event.Type()),
		messaging.HeaderCollection: event.CollectionSlug(),
		messaging.HeaderSentAt:     strconv.FormatInt(event.SentAt.Unix(), 10),
	}
	if chain, ok := event.Chain(); ok {
		h[messaging.HeaderChain] = chain.WireName()
	}
	return h
}
