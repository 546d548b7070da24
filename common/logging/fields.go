package logging

import "log/slog"

// Common field names for consistent logging across the stream client.
const (
	FieldComponent  = "component"
	FieldSessionID  = "session_id"
	FieldURL        = "url"
	FieldTopic      = "topic"
	FieldEvent      = "event"
	FieldEventType  = "event_type"
	FieldCollection = "collection"
	FieldSubject    = "subject"
	FieldStatus     = "status"
	FieldState      = "state"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldRequestID  = "request_id"
)

// Component returns a slog attribute naming the emitting component.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// SessionID returns a slog attribute for a stream session ID.
func SessionID(id string) slog.Attr {
	return slog.String(FieldSessionID, id)
}

// URL returns a slog attribute for an endpoint URL. Query strings are the
// caller's responsibility to redact.
func URL(u string) slog.Attr {
	return slog.String(FieldURL, u)
}

// Topic returns a slog attribute for a channel topic.
func Topic(topic string) slog.Attr {
	return slog.String(FieldTopic, topic)
}

// Event returns a slog attribute for a channel event name.
func Event(name string) slog.Attr {
	return slog.String(FieldEvent, name)
}

// EventType returns a slog attribute for a marketplace event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Collection returns a slog attribute for a collection slug.
func Collection(slug string) slog.Attr {
	return slog.String(FieldCollection, slug)
}

// Subject returns a slog attribute for a messaging subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Status returns a slog attribute for a reply status.
func Status(status string) slog.Attr {
	return slog.String(FieldStatus, status)
}

// State returns a slog attribute for a session state.
func State(state string) slog.Attr {
	return slog.String(FieldState, state)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// RequestID returns a slog attribute for an HTTP request ID.
func RequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}
