package schema

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/telhawk-systems/marketstream/pkg/codec"
)

// ItemListed is emitted when an item is listed for sale.
type ItemListed struct {
	Collection     Collection           `json:"collection"`
	Item           Item                 `json:"item"`
	EventTimestamp codec.Timestamp      `json:"event_timestamp"`
	BasePrice      codec.Uint256        `json:"base_price"`
	ExpirationDate codec.Timestamp      `json:"expiration_date"`
	IsPrivate      bool                 `json:"is_private"`
	ListingDate    codec.Timestamp      `json:"listing_date"`
	ListingType    *ListingType         `json:"listing_type,omitempty"`
	Maker          codec.NestedAddress  `json:"maker"`
	OrderHash      common.Hash          `json:"order_hash"`
	PaymentToken   PaymentToken         `json:"payment_token"`
	ProtocolData   ProtocolData         `json:"protocol_data"`
	Quantity       *uint64              `json:"quantity,omitempty"`
	Taker          *codec.NestedAddress `json:"taker,omitempty"`
}

func (p *ItemListed) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("item", &p.Item)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("base_price", &p.BasePrice)
	o.required("expiration_date", &p.ExpirationDate)
	o.required("is_private", &p.IsPrivate)
	o.required("listing_date", &p.ListingDate)
	o.optional("listing_type", &p.ListingType)
	o.required("maker", &p.Maker)
	o.required("order_hash", &p.OrderHash)
	o.required("payment_token", &p.PaymentToken)
	o.required("protocol_data", &p.ProtocolData)
	o.optional("quantity", &p.Quantity)
	o.optional("taker", &p.Taker)
	return o.err
}

// ItemSold is emitted when a listing is filled.
type ItemSold struct {
	Collection     Collection          `json:"collection"`
	Item           Item                `json:"item"`
	ClosingDate    codec.Timestamp     `json:"closing_date"`
	EventTimestamp codec.Timestamp     `json:"event_timestamp"`
	IsPrivate      bool                `json:"is_private"`
	ListingType    *ListingType        `json:"listing_type,omitempty"`
	Maker          codec.NestedAddress `json:"maker"`
	OrderHash      common.Hash         `json:"order_hash"`
	PaymentToken   PaymentToken        `json:"payment_token"`
	ProtocolData   ProtocolData        `json:"protocol_data"`
	Quantity       uint64              `json:"quantity"`
	SalePrice      codec.Uint256       `json:"sale_price"`
	Taker          codec.NestedAddress `json:"taker"`
	Transaction    Transaction         `json:"transaction"`
}

func (p *ItemSold) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("item", &p.Item)
	o.required("closing_date", &p.ClosingDate)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("is_private", &p.IsPrivate)
	o.optional("listing_type", &p.ListingType)
	o.required("maker", &p.Maker)
	o.required("order_hash", &p.OrderHash)
	o.required("payment_token", &p.PaymentToken)
	o.required("protocol_data", &p.ProtocolData)
	o.required("quantity", &p.Quantity)
	o.required("sale_price", &p.SalePrice)
	o.required("taker", &p.Taker)
	o.required("transaction", &p.Transaction)
	return o.err
}

// ItemCancelled is emitted when a listing is cancelled or expires.
type ItemCancelled struct {
	BasePrice      codec.Uint256        `json:"base_price"`
	Collection     Collection           `json:"collection"`
	EventTimestamp codec.Timestamp      `json:"event_timestamp"`
	IsPrivate      bool                 `json:"is_private"`
	Item           Item                 `json:"item"`
	ListingDate    *codec.Timestamp     `json:"listing_date,omitempty"`
	ListingType    *ListingType         `json:"listing_type,omitempty"`
	Maker          *codec.NestedAddress `json:"maker,omitempty"`
	OrderHash      common.Hash          `json:"order_hash"`
	PaymentToken   PaymentToken         `json:"payment_token"`
	Quantity       uint64               `json:"quantity"`
	Transaction    *Transaction         `json:"transaction,omitempty"`
}

func (p *ItemCancelled) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("base_price", &p.BasePrice)
	o.required("collection", &p.Collection)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("is_private", &p.IsPrivate)
	o.required("item", &p.Item)
	o.optional("listing_date", &p.ListingDate)
	o.optional("listing_type", &p.ListingType)
	o.optional("maker", &p.Maker)
	o.required("order_hash", &p.OrderHash)
	o.required("payment_token", &p.PaymentToken)
	o.required("quantity", &p.Quantity)
	o.optional("transaction", &p.Transaction)
	return o.err
}

// ItemTransferred is emitted when an item changes owner outside a sale.
type ItemTransferred struct {
	Collection     Collection          `json:"collection"`
	EventTimestamp codec.Timestamp     `json:"event_timestamp"`
	FromAccount    codec.NestedAddress `json:"from_account"`
	Item           Item                `json:"item"`
	Quantity       *uint64             `json:"quantity,omitempty"`
	ToAccount      codec.NestedAddress `json:"to_account"`
	Transaction    *Transaction        `json:"transaction,omitempty"`
}

func (p *ItemTransferred) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("from_account", &p.FromAccount)
	o.required("item", &p.Item)
	o.optional("quantity", &p.Quantity)
	o.required("to_account", &p.ToAccount)
	o.optional("transaction", &p.Transaction)
	return o.err
}

// ItemMetadataUpdated is emitted when an item's metadata is refreshed.
type ItemMetadataUpdated struct {
	Collection Collection `json:"collection"`
	Item       Item       `json:"item"`
}

func (p *ItemMetadataUpdated) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("item", &p.Item)
	return o.err
}

// OfferTerms are the fields every offer and bid carries.
type OfferTerms struct {
	EventTimestamp codec.Timestamp      `json:"event_timestamp"`
	BasePrice      codec.Uint256        `json:"base_price"`
	CreatedDate    codec.Timestamp      `json:"created_date"`
	ExpirationDate codec.Timestamp      `json:"expiration_date"`
	Maker          codec.NestedAddress  `json:"maker"`
	OrderHash      common.Hash          `json:"order_hash"`
	PaymentToken   PaymentToken         `json:"payment_token"`
	Quantity       uint64               `json:"quantity"`
	Taker          *codec.NestedAddress `json:"taker,omitempty"`
}

func (t *OfferTerms) decode(o *object) {
	o.required("event_timestamp", &t.EventTimestamp)
	o.required("base_price", &t.BasePrice)
	o.required("created_date", &t.CreatedDate)
	o.required("expiration_date", &t.ExpirationDate)
	o.required("maker", &t.Maker)
	o.required("order_hash", &t.OrderHash)
	o.required("payment_token", &t.PaymentToken)
	o.required("quantity", &t.Quantity)
	o.optional("taker", &t.Taker)
}

// ItemReceivedOffer is emitted when an item receives an offer.
type ItemReceivedOffer struct {
	Collection Collection `json:"collection"`
	Item       Item       `json:"item"`
	OfferTerms
}

func (p *ItemReceivedOffer) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("item", &p.Item)
	p.OfferTerms.decode(o)
	return o.err
}

// ItemReceivedBid is emitted when an item in an english auction receives a bid.
type ItemReceivedBid struct {
	Collection Collection `json:"collection"`
	Item       Item       `json:"item"`
	OfferTerms
}

func (p *ItemReceivedBid) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("collection", &p.Collection)
	o.required("item", &p.Item)
	p.OfferTerms.decode(o)
	return o.err
}

// CollectionOffer is an offer on any item of a collection.
type CollectionOffer struct {
	OfferTerms
	AssetContractCriteria codec.NestedAddress `json:"asset_contract_criteria"`
	Collection            Collection          `json:"collection"`
	CollectionCriteria    CollectionCriteria  `json:"collection_criteria"`
	ProtocolAddress       common.Address      `json:"protocol_address"`
	ProtocolData          ProtocolData        `json:"protocol_data"`
}

func (p *CollectionOffer) decode(o *object) {
	p.OfferTerms.decode(o)
	o.required("asset_contract_criteria", &p.AssetContractCriteria)
	o.required("collection", &p.Collection)
	o.required("collection_criteria", &p.CollectionCriteria)
	o.required("protocol_address", &p.ProtocolAddress)
	o.required("protocol_data", &p.ProtocolData)
}

func (p *CollectionOffer) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	p.decode(o)
	return o.err
}

// TraitOffer is an offer on any item of a collection carrying a given trait.
type TraitOffer struct {
	CollectionOffer
	TraitCriteria TraitCriteria `json:"trait_criteria"`
}

func (p *TraitOffer) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	p.CollectionOffer.decode(o)
	o.required("trait_criteria", &p.TraitCriteria)
	return o.err
}

// OrderInvalidate is emitted when an order is no longer fillable. The order
// hash may be absent if the order was never assigned one.
type OrderInvalidate struct {
	Chain           Chain           `json:"chain"`
	Collection      Collection      `json:"collection"`
	EventTimestamp  codec.Timestamp `json:"event_timestamp"`
	Item            Item            `json:"item"`
	OrderHash       *common.Hash    `json:"order_hash,omitempty"`
	ProtocolAddress common.Address  `json:"protocol_address"`
}

func (p *OrderInvalidate) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("chain", &p.Chain)
	o.required("collection", &p.Collection)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("item", &p.Item)
	o.optional("order_hash", &p.OrderHash)
	o.required("protocol_address", &p.ProtocolAddress)
	return o.err
}

// OrderRevalidate is emitted when a previously invalidated order is fillable again.
type OrderRevalidate struct {
	Chain           Chain           `json:"chain"`
	Collection      Collection      `json:"collection"`
	EventTimestamp  codec.Timestamp `json:"event_timestamp"`
	Item            Item            `json:"item"`
	OrderHash       common.Hash     `json:"order_hash"`
	ProtocolAddress common.Address  `json:"protocol_address"`
}

func (p *OrderRevalidate) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	o.required("chain", &p.Chain)
	o.required("collection", &p.Collection)
	o.required("event_timestamp", &p.EventTimestamp)
	o.required("item", &p.Item)
	o.required("order_hash", &p.OrderHash)
	o.required("protocol_address", &p.ProtocolAddress)
	return o.err
}
