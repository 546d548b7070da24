package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/telhawk-systems/marketstream/pkg/codec"
)

// Collection identifies a marketplace collection by slug. On the wire it is
// the object {"slug": "..."}.
type Collection struct {
	Slug string `json:"slug"`
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("slug", &c.Slug)
	return o.err
}

// Item describes the asset an event is about. Every field is optional.
type Item struct {
	NftID     *NftID    `json:"nft_id,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
	Chain     *Chain    `json:"chain,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

func (i *Item) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.optional("nft_id", &i.NftID)
	o.optional("permalink", &i.Permalink)
	o.optional("chain", &i.Chain)
	o.optional("metadata", &i.Metadata)
	return o.err
}

// NftID is the chain-qualified identity of a token, "chain/0xaddress/token_id" on the wire.
type NftID struct {
	Chain   Chain
	Address common.Address
	TokenID string
}

// ParseNftID parses the "chain/address/id" form.
func ParseNftID(s string) (NftID, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return NftID{}, fmt.Errorf("%w: %q: expected chain/address/id", ErrInvalidNftID, s)
	}
	chain, err := ParseChain(parts[0])
	if err != nil {
		return NftID{}, fmt.Errorf("%w: %v", ErrInvalidNftID, err)
	}
	addr, err := codec.ParseAddress(parts[1])
	if err != nil {
		return NftID{}, fmt.Errorf("%w: %v", ErrInvalidNftID, err)
	}
	if parts[2] == "" {
		return NftID{}, fmt.Errorf("%w: %q: empty token id", ErrInvalidNftID, s)
	}
	return NftID{Chain: chain, Address: addr, TokenID: parts[2]}, nil
}

func (n NftID) String() string {
	return n.Chain.WireName() + "/" + strings.ToLower(n.Address.Hex()) + "/" + n.TokenID
}

func (n NftID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *NftID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected string", ErrInvalidNftID)
	}
	parsed, err := ParseNftID(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Metadata is the basic token metadata forwarded by the feed.
type Metadata struct {
	Name            string  `json:"name,omitempty"`
	Description     string  `json:"description,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	ImagePreviewURL string  `json:"image_preview_url,omitempty"`
	AnimationURL    string  `json:"animation_url,omitempty"`
	MetadataURL     string  `json:"metadata_url,omitempty"`
	ExternalLink    string  `json:"external_link,omitempty"`
	BackgroundColor string  `json:"background_color,omitempty"`
	Traits          []Trait `json:"traits,omitempty"`
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.optional("name", &m.Name)
	o.optional("description", &m.Description)
	o.optional("image_url", &m.ImageURL)
	o.optional("image_preview_url", &m.ImagePreviewURL)
	o.optional("animation_url", &m.AnimationURL)
	o.optional("metadata_url", &m.MetadataURL)
	o.optional("external_link", &m.ExternalLink)
	o.optional("background_color", &m.BackgroundColor)
	o.optional("traits", (*list[Trait])(&m.Traits))
	return o.err
}

// Trait is one metadata attribute. Values may be strings or numbers upstream
// and are normalized to strings.
type Trait struct {
	TraitType   string   `json:"trait_type"`
	Value       *string  `json:"value"`
	DisplayType *string  `json:"display_type"`
	MaxValue    *float64 `json:"max_value"`
	TraitCount  *uint64  `json:"trait_count"`
	Order       *uint64  `json:"order"`
}

func (t *Trait) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("trait_type", &t.TraitType)
	if o.has("value") {
		o.with("value", func(raw json.RawMessage) error {
			s, err := scalarString(raw)
			if err != nil {
				return err
			}
			t.Value = &s
			return nil
		})
	}
	o.optional("display_type", &t.DisplayType)
	o.optional("max_value", &t.MaxValue)
	o.optional("trait_count", &t.TraitCount)
	o.optional("order", &t.Order)
	return o.err
}

// scalarString renders a JSON string, number or bool as a string.
func scalarString(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("expected scalar, got %s", raw)
	}
	return cast.ToStringE(v)
}

// ListingType is the auction style of a listing. A nil *ListingType means a
// fixed-price buyout.
type ListingType string

const (
	ListingEnglish ListingType = "english"
	ListingDutch   ListingType = "dutch"
)

func (l *ListingType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected string", ErrInvalidListingType)
	}
	switch ListingType(strings.ToLower(s)) {
	case ListingEnglish:
		*l = ListingEnglish
	case ListingDutch:
		*l = ListingDutch
	default:
		return fmt.Errorf("%w: %q", ErrInvalidListingType, s)
	}
	return nil
}

// PaymentToken is the currency an order is denominated in.
type PaymentToken struct {
	Address  common.Address `json:"address"`
	Decimals uint64         `json:"decimals"`
	EthPrice codec.Float    `json:"eth_price"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	UsdPrice codec.Float    `json:"usd_price"`
}

func (p *PaymentToken) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("address", &p.Address)
	o.required("decimals", &p.Decimals)
	o.required("eth_price", &p.EthPrice)
	o.required("name", &p.Name)
	o.required("symbol", &p.Symbol)
	o.required("usd_price", &p.UsdPrice)
	return o.err
}

// Transaction is an on-chain transaction reference.
type Transaction struct {
	Hash      common.Hash     `json:"hash"`
	Timestamp codec.Timestamp `json:"timestamp"`
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("hash", &t.Hash)
	o.required("timestamp", &t.Timestamp)
	return o.err
}

// ProtocolData carries the order execution parameters. Most of it is passed
// through untouched.
type ProtocolData struct {
	Parameters Parameters `json:"parameters"`
	Signature  *string    `json:"signature"`
}

func (p *ProtocolData) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("parameters", &p.Parameters)
	o.optional("signature", &p.Signature)
	return o.err
}

// Parameters are the order components of a marketplace protocol order.
type Parameters struct {
	ConduitKey                      string          `json:"conduitKey"`
	Consideration                   []Consideration `json:"consideration"`
	Counter                         string          `json:"counter"`
	EndTime                         codec.Timestamp `json:"endTime"`
	Offer                           []Offer         `json:"offer"`
	Offerer                         common.Address  `json:"offerer"`
	OrderType                       uint64          `json:"orderType"`
	Salt                            string          `json:"salt"`
	StartTime                       codec.Timestamp `json:"startTime"`
	TotalOriginalConsiderationItems uint64          `json:"totalOriginalConsiderationItems"`
	Zone                            common.Address  `json:"zone"`
	ZoneHash                        string          `json:"zoneHash"`
}

func (p *Parameters) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("conduitKey", &p.ConduitKey)
	o.required("consideration", (*list[Consideration])(&p.Consideration))
	o.with("counter", func(raw json.RawMessage) error {
		s, err := scalarString(raw)
		p.Counter = s
		return err
	})
	o.required("endTime", &p.EndTime)
	o.required("offer", (*list[Offer])(&p.Offer))
	o.required("offerer", &p.Offerer)
	o.required("orderType", &p.OrderType)
	o.required("salt", &p.Salt)
	o.required("startTime", &p.StartTime)
	o.required("totalOriginalConsiderationItems", &p.TotalOriginalConsiderationItems)
	o.required("zone", &p.Zone)
	o.required("zoneHash", &p.ZoneHash)
	return o.err
}

// Consideration is one item the offerer expects to receive.
type Consideration struct {
	ItemType             uint64         `json:"itemType"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria string         `json:"identifierOrCriteria"`
	StartAmount          string         `json:"startAmount"`
	EndAmount            *string        `json:"endAmount,omitempty"`
	Recipient            common.Address `json:"recipient"`
}

func (c *Consideration) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("itemType", &c.ItemType)
	o.required("token", &c.Token)
	o.required("identifierOrCriteria", &c.IdentifierOrCriteria)
	o.required("startAmount", &c.StartAmount)
	o.optional("endAmount", &c.EndAmount)
	o.required("recipient", &c.Recipient)
	return o.err
}

// Offer is one item the offerer puts up.
type Offer struct {
	ItemType             uint64         `json:"itemType"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria string         `json:"identifierOrCriteria"`
	StartAmount          string         `json:"startAmount"`
	EndAmount            string         `json:"endAmount"`
}

func (f *Offer) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("itemType", &f.ItemType)
	o.required("token", &f.Token)
	o.required("identifierOrCriteria", &f.IdentifierOrCriteria)
	o.required("startAmount", &f.StartAmount)
	o.required("endAmount", &f.EndAmount)
	return o.err
}

// CollectionCriteria narrows an offer to every item of a collection.
type CollectionCriteria struct {
	Slug string `json:"slug"`
}

func (c *CollectionCriteria) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("slug", &c.Slug)
	return o.err
}

// TraitCriteria narrows an offer to items carrying one trait value.
type TraitCriteria struct {
	TraitName string `json:"trait_name"`
	TraitType string `json:"trait_type"`
}

func (t *TraitCriteria) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("trait_name", &t.TraitName)
	o.required("trait_type", &t.TraitType)
	return o.err
}
