package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/marketstream/common/messaging"
	"github.com/telhawk-systems/marketstream/internal/feedsim"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*messaging.Message
	err  error
}

func (p *recordingPublisher) PublishMsg(_ context.Context, msg *messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type sliceSource struct {
	events []schema.StreamEvent
}

func (s *sliceSource) NextEvent() (schema.StreamEvent, bool) {
	if len(s.events) == 0 {
		return schema.StreamEvent{}, false
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, true
}

func generated(t *testing.T, eventType schema.EventType) schema.StreamEvent {
	t.Helper()
	raw, err := feedsim.NewGenerator(1, "neon-vortex-1").Event(eventType, "neon-vortex-1")
	require.NoError(t, err)
	event, err := schema.DecodeEvent(raw)
	require.NoError(t, err)
	return event
}

func TestForward(t *testing.T) {
	pub := &recordingPublisher{}
	r := New(pub, nil)
	event := generated(t, schema.EventItemSold)

	require.NoError(t, r.Forward(context.Background(), event))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "market.events.item_sold", msg.Subject)
	assert.Equal(t, "item_sold", msg.Metadata[messaging.HeaderEventType])
	assert.Equal(t, "neon-vortex-1", msg.Metadata[messaging.HeaderCollection])
	assert.NotEmpty(t, msg.Metadata[messaging.HeaderChain])
	assert.NotEmpty(t, msg.Metadata[messaging.HeaderSentAt])

	decoded, err := schema.DecodeEvent(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, schema.EventItemSold, decoded.Type())

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(msg.Data, &wire))
	assert.Contains(t, wire, "payload")
}

func TestForward_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: connection closed")}
	err := New(pub, nil).Forward(context.Background(), generated(t, schema.EventItemListed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.events.item_listed")
}

func TestRun(t *testing.T) {
	pub := &recordingPublisher{}
	src := &sliceSource{}
	for _, eventType := range schema.EventTypes {
		src.events = append(src.events, generated(t, eventType))
	}

	n, err := New(pub, nil).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, len(schema.EventTypes), n)

	subjects := make([]string, 0, len(pub.msgs))
	for _, m := range pub.msgs {
		subjects = append(subjects, m.Subject)
	}
	for _, eventType := range schema.EventTypes {
		assert.Contains(t, subjects, messaging.EventSubject(string(eventType)))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New(&recordingPublisher{}, nil).Run(ctx, &sliceSource{events: []schema.StreamEvent{generated(t, schema.EventItemSold)}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestHeaders_OrderInvalidateChain(t *testing.T) {
	event := generated(t, schema.EventOrderInvalidate)
	h := Headers(event)
	chain, ok := event.Chain()
	require.True(t, ok)
	assert.Equal(t, chain.WireName(), h[messaging.HeaderChain])
}
