package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	makerAddr   = "0x1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d"
	takerAddr   = "0x00000000000000000000000000000000000000aa"
	tokenAddr   = "0x0000000000000000000000000000000000000000"
	orderHash   = "0x6ff7a4ddc4a0b1a12d3eae0c1c2cb8ea9d2f2b9aa0d4a3e6fb0c4f7fb2b1e7c3"
	txHash      = "0x9b5bb4a5fb3b6f1bc8d3d0f1e9af7e4a4cb7c6d2b8e3d3e7f01b6b6d1b9a8c01"
	sentAtRFC   = "2023-08-01T22:39:32.033948+00:00"
	sentAtEpoch = int64(1690929572)
)

var itemJSON = `{
	"nft_id": "matic/0x2953399124f0cbb46d2cbacd8a89cf0599974963/6180",
	"permalink": "https://opensea.io/assets/matic/0x2953399124f0cbb46d2cbacd8a89cf0599974963/6180",
	"chain": {"name": "matic"},
	"metadata": {
		"name": "Vortex #6180",
		"image_url": "https://example.com/6180.png",
		"traits": [
			{"trait_type": "Background", "value": "Blue"},
			{"trait_type": "Level", "value": 7, "display_type": "number", "max_value": 10}
		]
	}
}`

var paymentTokenJSON = `{
	"address": "` + tokenAddr + `",
	"decimals": 18,
	"eth_price": "1.000000000000000",
	"name": "Ether",
	"symbol": "ETH",
	"usd_price": 1843.07
}`

var protocolDataJSON = `{
	"parameters": {
		"conduitKey": "0x0000007b02230091a7ed01230072f7006a004d60a8d4e71d599b8104250f0000",
		"consideration": [
			{
				"itemType": 0,
				"token": "` + tokenAddr + `",
				"identifierOrCriteria": "0",
				"startAmount": "975000000000000000",
				"endAmount": "975000000000000000",
				"recipient": "` + makerAddr + `"
			}
		],
		"counter": 0,
		"endTime": "1693608000",
		"offer": [
			{
				"itemType": 2,
				"token": "0x2953399124f0cbb46d2cbacd8a89cf0599974963",
				"identifierOrCriteria": "6180",
				"startAmount": "1",
				"endAmount": "1"
			}
		],
		"offerer": "` + makerAddr + `",
		"orderType": 0,
		"salt": "0x360c6ebe",
		"startTime": "1690929572",
		"totalOriginalConsiderationItems": 1,
		"zone": "0x0000000000000000000000000000000000000000",
		"zoneHash": "0x0000000000000000000000000000000000000000000000000000000000000000"
	},
	"signature": null
}`

var offerTermsJSON = `
	"event_timestamp": "` + sentAtRFC + `",
	"base_price": "250000000000000000",
	"created_date": "2023-08-01T22:39:30.000000+00:00",
	"expiration_date": "2023-08-02T22:39:30.000000+00:00",
	"maker": {"address": "` + makerAddr + `"},
	"order_hash": "` + orderHash + `",
	"payment_token": ` + paymentTokenJSON + `,
	"quantity": 1`

var collectionOfferJSON = offerTermsJSON + `,
	"asset_contract_criteria": {"address": "0x2953399124f0cbb46d2cbacd8a89cf0599974963"},
	"collection": {"slug": "neon-vortex-1"},
	"collection_criteria": {"slug": "neon-vortex-1"},
	"protocol_address": "0x00000000000000adc04c56bf30ac9d3c0aaf14dc",
	"protocol_data": ` + protocolDataJSON

// samplePayloads holds a minimal well-formed payload body per event type.
var samplePayloads = map[EventType]string{
	EventItemListed: `{
		"collection": {"slug": "neon-vortex-1"},
		"item": ` + itemJSON + `,
		"event_timestamp": "` + sentAtRFC + `",
		"base_price": "975000000000000000",
		"expiration_date": "1693608000",
		"is_private": false,
		"listing_date": 1690929572,
		"listing_type": null,
		"maker": {"address": "` + makerAddr + `"},
		"order_hash": "` + orderHash + `",
		"payment_token": ` + paymentTokenJSON + `,
		"protocol_data": ` + protocolDataJSON + `
	}`,
	EventItemSold: `{
		"collection": {"slug": "neon-vortex-1"},
		"item": ` + itemJSON + `,
		"closing_date": "` + sentAtRFC + `",
		"event_timestamp": "` + sentAtRFC + `",
		"is_private": false,
		"listing_type": "dutch",
		"maker": {"address": "` + makerAddr + `"},
		"order_hash": "` + orderHash + `",
		"payment_token": ` + paymentTokenJSON + `,
		"protocol_data": ` + protocolDataJSON + `,
		"quantity": 1,
		"sale_price": "340282366920938463463374607431768211456",
		"taker": {"address": "` + takerAddr + `"},
		"transaction": {"hash": "` + txHash + `", "timestamp": "` + sentAtRFC + `"}
	}`,
	EventItemCancelled: `{
		"base_price": "975000000000000000",
		"collection": {"slug": "neon-vortex-1"},
		"event_timestamp": "` + sentAtRFC + `",
		"is_private": false,
		"item": ` + itemJSON + `,
		"order_hash": "` + orderHash + `",
		"payment_token": ` + paymentTokenJSON + `,
		"quantity": 1
	}`,
	EventItemTransferred: `{
		"collection": {"slug": "neon-vortex-1"},
		"event_timestamp": "` + sentAtRFC + `",
		"from_account": {"address": "` + makerAddr + `"},
		"item": ` + itemJSON + `,
		"to_account": {"address": "` + takerAddr + `"}
	}`,
	EventItemMetadataUpdated: `{
		"collection": {"slug": "neon-vortex-1"},
		"item": ` + itemJSON + `
	}`,
	EventItemReceivedOffer: `{
		"collection": {"slug": "neon-vortex-1"},
		"item": ` + itemJSON + `,` + offerTermsJSON + `
	}`,
	EventItemReceivedBid: `{
		"collection": {"slug": "neon-vortex-1"},
		"item": ` + itemJSON + `,` + offerTermsJSON + `,
		"taker": {"address": "` + takerAddr + `"}
	}`,
	EventCollectionOffer: `{` + collectionOfferJSON + `}`,
	EventTraitOffer: `{` + collectionOfferJSON + `,
		"trait_criteria": {"trait_name": "Blue", "trait_type": "Background"}
	}`,
	EventOrderInvalidate: `{
		"chain": {"name": "ethereum"},
		"collection": {"slug": "neon-vortex-1"},
		"event_timestamp": "` + sentAtRFC + `",
		"item": ` + itemJSON + `,
		"protocol_address": "0x00000000000000adc04c56bf30ac9d3c0aaf14dc"
	}`,
	EventOrderRevalidate: `{
		"chain": {"name": "ethereum"},
		"collection": {"slug": "neon-vortex-1"},
		"event_timestamp": "` + sentAtRFC + `",
		"item": ` + itemJSON + `,
		"order_hash": "` + orderHash + `",
		"protocol_address": "0x00000000000000adc04c56bf30ac9d3c0aaf14dc"
	}`,
}

// sampleEvent wraps the sample payload for t in a stream event object.
func sampleEvent(t *testing.T, eventType EventType) []byte {
	t.Helper()
	body, ok := samplePayloads[eventType]
	require.True(t, ok, "no sample for %s", eventType)
	raw, err := json.Marshal(map[string]any{
		"event_type": eventType,
		"sent_at":    sentAtRFC,
		"payload":    json.RawMessage(body),
	})
	require.NoError(t, err)
	return raw
}

// withoutField returns the sample payload for t with key removed.
func withoutField(t *testing.T, eventType EventType, key string) []byte {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(samplePayloads[eventType]), &fields))
	delete(fields, key)
	raw, err := json.Marshal(map[string]any{
		"event_type": eventType,
		"sent_at":    sentAtEpoch,
		"payload":    fields,
	})
	require.NoError(t, err)
	return raw
}
