package phoenix

import "encoding/json"

// Frame is an outbound channel message.
type Frame struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     int            `json:"ref"`
}

// Heartbeat keeps the socket alive; the server closes idle connections.
func Heartbeat() Frame {
	return Frame{Topic: TopicPhoenix, Event: EventHeartbeat, Payload: map[string]any{}}
}

// Join subscribes to topic.
func Join(topic string) Frame {
	return Frame{Topic: topic, Event: EventJoin, Payload: map[string]any{}}
}

// Encode renders the frame as a text message.
func (f Frame) Encode() ([]byte, error) {
	if f.Payload == nil {
		f.Payload = map[string]any{}
	}
	return json.Marshal(f)
}
