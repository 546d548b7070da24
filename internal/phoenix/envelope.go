// Package phoenix implements the Phoenix channel framing the marketplace feed
// speaks: the inbound {topic, event, payload} envelope and the outbound
// heartbeat and join frames.
package phoenix

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

// Channel event names.
const (
	EventJoin      = "phx_join"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
	EventHeartbeat = "heartbeat"
)

// TopicPhoenix is the reserved topic heartbeats are sent on.
const TopicPhoenix = "phoenix"

var (
	ErrMalformedEnvelope   = errors.New("phoenix: malformed envelope")
	ErrUnrecognizedPayload = errors.New("phoenix: unrecognized payload")
)

// Envelope is an inbound channel message.
type Envelope struct {
	Topic   string
	Event   string
	Payload *PushPayload
}

// PushPayload holds exactly one of Reply or Custom.
type PushPayload struct {
	Reply  *Reply
	Custom *schema.StreamEvent
}

// Reply acknowledges a message the client sent.
type Reply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// OK reports whether the server accepted the message.
func (r Reply) OK() bool {
	return r.Status == "ok"
}

type wireEnvelope struct {
	Topic   *string         `json:"topic"`
	Event   *string         `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses one inbound text frame. A reply shape is tried before the
// domain event shape.
func Decode(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if w.Topic == nil || w.Event == nil {
		return Envelope{}, fmt.Errorf("%w: topic and event are required", ErrMalformedEnvelope)
	}

	env := Envelope{Topic: *w.Topic, Event: *w.Event}
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		return env, nil
	}

	if reply, ok := decodeReply(w.Payload); ok {
		env.Payload = &PushPayload{Reply: reply}
		return env, nil
	}

	event, err := schema.DecodeEvent(w.Payload)
	if err != nil {
		return env, fmt.Errorf("%w: %w", ErrUnrecognizedPayload, err)
	}
	env.Payload = &PushPayload{Custom: &event}
	return env, nil
}

// decodeReply matches {"status": string, "response": any}.
func decodeReply(payload json.RawMessage) (*Reply, bool) {
	var probe struct {
		Status   *string         `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, false
	}
	if probe.Status == nil || probe.Response == nil {
		return nil, false
	}
	return &Reply{Status: *probe.Status, Response: probe.Response}, true
}
