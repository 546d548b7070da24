package schema

import (
	"encoding/json"
	"fmt"

	"github.com/telhawk-systems/marketstream/pkg/codec"
)

// EventType is the wire discriminator of a stream event.
type EventType string

const (
	EventItemListed          EventType = "item_listed"
	EventItemSold            EventType = "item_sold"
	EventItemCancelled       EventType = "item_cancelled"
	EventItemTransferred     EventType = "item_transferred"
	EventItemMetadataUpdated EventType = "item_metadata_updated"
	EventItemReceivedOffer   EventType = "item_received_offer"
	EventItemReceivedBid     EventType = "item_received_bid"
	EventCollectionOffer     EventType = "collection_offer"
	EventTraitOffer          EventType = "trait_offer"
	EventOrderInvalidate     EventType = "order_invalidate"
	EventOrderRevalidate     EventType = "order_revalidate"
)

// EventTypes lists every event type the decoder understands.
var EventTypes = []EventType{
	EventItemListed,
	EventItemSold,
	EventItemCancelled,
	EventItemTransferred,
	EventItemMetadataUpdated,
	EventItemReceivedOffer,
	EventItemReceivedBid,
	EventCollectionOffer,
	EventTraitOffer,
	EventOrderInvalidate,
	EventOrderRevalidate,
}

// Known reports whether t is one of EventTypes.
func (t EventType) Known() bool {
	return newPayload(t) != nil
}

// newPayload returns an empty record for t, or nil if t is unknown.
func newPayload(t EventType) Payload {
	switch t {
	case EventItemListed:
		return &ItemListed{}
	case EventItemSold:
		return &ItemSold{}
	case EventItemCancelled:
		return &ItemCancelled{}
	case EventItemTransferred:
		return &ItemTransferred{}
	case EventItemMetadataUpdated:
		return &ItemMetadataUpdated{}
	case EventItemReceivedOffer:
		return &ItemReceivedOffer{}
	case EventItemReceivedBid:
		return &ItemReceivedBid{}
	case EventCollectionOffer:
		return &CollectionOffer{}
	case EventTraitOffer:
		return &TraitOffer{}
	case EventOrderInvalidate:
		return &OrderInvalidate{}
	case EventOrderRevalidate:
		return &OrderRevalidate{}
	}
	return nil
}

// Payload is one of the eleven event records. The set is closed; use a type
// switch to consume it.
type Payload interface {
	EventType() EventType
	payload()
}

func (*ItemListed) EventType() EventType          { return EventItemListed }
func (*ItemSold) EventType() EventType            { return EventItemSold }
func (*ItemCancelled) EventType() EventType       { return EventItemCancelled }
func (*ItemTransferred) EventType() EventType     { return EventItemTransferred }
func (*ItemMetadataUpdated) EventType() EventType { return EventItemMetadataUpdated }
func (*ItemReceivedOffer) EventType() EventType   { return EventItemReceivedOffer }
func (*ItemReceivedBid) EventType() EventType     { return EventItemReceivedBid }
func (*CollectionOffer) EventType() EventType     { return EventCollectionOffer }
func (*TraitOffer) EventType() EventType          { return EventTraitOffer }
func (*OrderInvalidate) EventType() EventType     { return EventOrderInvalidate }
func (*OrderRevalidate) EventType() EventType     { return EventOrderRevalidate }

func (*ItemListed) payload()          {}
func (*ItemSold) payload()            {}
func (*ItemCancelled) payload()       {}
func (*ItemTransferred) payload()     {}
func (*ItemMetadataUpdated) payload() {}
func (*ItemReceivedOffer) payload()   {}
func (*ItemReceivedBid) payload()     {}
func (*CollectionOffer) payload()     {}
func (*TraitOffer) payload()          {}
func (*OrderInvalidate) payload()     {}
func (*OrderRevalidate) payload()     {}

// StreamEvent is one decoded marketplace event.
type StreamEvent struct {
	SentAt  codec.Timestamp
	Payload Payload
}

// Type returns the event's discriminator, or "" for an empty event.
func (e StreamEvent) Type() EventType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// CollectionSlug returns the slug of the collection the event concerns.
func (e StreamEvent) CollectionSlug() string {
	switch p := e.Payload.(type) {
	case *ItemListed:
		return p.Collection.Slug
	case *ItemSold:
		return p.Collection.Slug
	case *ItemCancelled:
		return p.Collection.Slug
	case *ItemTransferred:
		return p.Collection.Slug
	case *ItemMetadataUpdated:
		return p.Collection.Slug
	case *ItemReceivedOffer:
		return p.Collection.Slug
	case *ItemReceivedBid:
		return p.Collection.Slug
	case *CollectionOffer:
		return p.Collection.Slug
	case *TraitOffer:
		return p.Collection.Slug
	case *OrderInvalidate:
		return p.Collection.Slug
	case *OrderRevalidate:
		return p.Collection.Slug
	}
	return ""
}

// Chain returns the chain the event happened on, when the feed says.
func (e StreamEvent) Chain() (Chain, bool) {
	var item *Item
	switch p := e.Payload.(type) {
	case *OrderInvalidate:
		return p.Chain, true
	case *OrderRevalidate:
		return p.Chain, true
	case *ItemListed:
		item = &p.Item
	case *ItemSold:
		item = &p.Item
	case *ItemCancelled:
		item = &p.Item
	case *ItemTransferred:
		item = &p.Item
	case *ItemMetadataUpdated:
		item = &p.Item
	case *ItemReceivedOffer:
		item = &p.Item
	case *ItemReceivedBid:
		item = &p.Item
	}
	if item == nil {
		return ChainUnknown, false
	}
	if item.Chain != nil {
		return *item.Chain, true
	}
	if item.NftID != nil {
		return item.NftID.Chain, true
	}
	return ChainUnknown, false
}

type wireEvent struct {
	EventType EventType       `json:"event_type"`
	SentAt    codec.Timestamp `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEvent decodes a {"event_type", "sent_at", "payload"} object.
func DecodeEvent(data []byte) (StreamEvent, error) {
	var e StreamEvent
	if err := e.UnmarshalJSON(data); err != nil {
		return StreamEvent{}, err
	}
	return e, nil
}

func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	var eventType EventType
	o.required("event_type", &eventType)
	o.required("sent_at", &e.SentAt)
	if o.err != nil {
		return o.err
	}
	p := newPayload(eventType)
	if p == nil {
		return &FieldError{Path: "event_type", Err: fmt.Errorf("%w: %q", ErrUnrecognizedEventType, eventType)}
	}
	o.required("payload", p)
	if o.err != nil {
		return o.err
	}
	e.Payload = p
	return nil
}

func (e StreamEvent) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrUnrecognizedEventType)
	}
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		EventType: e.Payload.EventType(),
		SentAt:    e.SentAt,
		Payload:   body,
	})
}
