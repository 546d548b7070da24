package messaging

import "strings"

// Subjects follow the pattern market.events.{event_type}.
const (
	SubjectEventsPrefix = "market.events"
	SubjectAllEvents    = SubjectEventsPrefix + ".>"
)

// Header keys set on relayed events.
const (
	HeaderCollection = "Market-Collection"
	HeaderChain      = "Market-Chain"
	HeaderSentAt     = "Market-Sent-At"
	HeaderEventType  = "Market-Event-Type"
)

// EventSubject returns the subject events of the given type are published on.
// Example: market.events.item_sold
func EventSubject(eventType string) string {
	return SubjectEventsPrefix + "." + eventType
}

// EventTypeFromSubject is the inverse of EventSubject. It returns false for
// subjects outside the events prefix.
func EventTypeFromSubject(subject string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, SubjectEventsPrefix+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return "", false
	}
	return rest, true
}
