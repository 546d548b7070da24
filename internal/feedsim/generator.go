// Package feedsim produces synthetic marketplace traffic: a generator for
// well-formed stream events and a Phoenix channel server that pushes them.
package feedsim

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/holiman/uint256"

	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var mainnetChains = []string{"ethereum", "matic", "base", "arbitrum", "optimism", "klaytn", "zora"}

// Generator builds stream event payloads in the exact wire shape the feed uses.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	slugs []string
	now   func() time.Time
}

// NewGenerator returns a Generator seeded with seed. Events are attributed to
// one of slugs; a handful of invented slugs are used when none are given.
func NewGenerator(seed int64, slugs ...string) *Generator {
	faker := gofakeit.New(seed)
	if len(slugs) == 0 {
		for i := 0; i < 5; i++ {
			slugs = append(slugs, fmt.Sprintf("%s-%s-%d", faker.Adjective(), faker.Noun(), faker.Number(1, 99)))
		}
	}
	for i, s := range slugs {
		slugs[i] = strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	}
	return &Generator{faker: faker, slugs: slugs, now: time.Now}
}

// Slugs returns the collections events are attributed to.
func (g *Generator) Slugs() []string {
	return append([]string(nil), g.slugs...)
}

// Random returns an event of a random type for a random collection.
func (g *Generator) Random() (schema.EventType, string, []byte, error) {
	g.mu.Lock()
	eventType := schema.EventTypes[g.faker.Number(0, len(schema.EventTypes)-1)]
	slug := g.slugs[g.faker.Number(0, len(g.slugs)-1)]
	g.mu.Unlock()

	raw, err := g.Event(eventType, slug)
	return eventType, slug, raw, err
}

// Event returns one {"event_type", "sent_at", "payload"} object of the given
// type for the collection slug.
func (g *Generator) Event(eventType schema.EventType, slug string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var payload map[string]interface{}
	switch eventType {
	case schema.EventItemListed:
		payload = g.itemListed(slug)
	case schema.EventItemSold:
		payload = g.itemSold(slug)
	case schema.EventItemCancelled:
		payload = g.itemCancelled(slug)
	case schema.EventItemTransferred:
		payload = g.itemTransferred(slug)
	case schema.EventItemMetadataUpdated:
		payload = map[string]interface{}{
			"collection": collection(slug),
			"item":       g.item(g.chain()),
		}
	case schema.EventItemReceivedOffer, schema.EventItemReceivedBid:
		payload = g.offerTerms()
		payload["collection"] = collection(slug)
		payload["item"] = g.item(g.chain())
	case schema.EventCollectionOffer:
		payload = g.collectionOffer(slug)
	case schema.EventTraitOffer:
		payload = g.collectionOffer(slug)
		payload["trait_criteria"] = map[string]interface{}{
			"trait_type": g.faker.Noun(),
			"trait_name": g.faker.Adjective(),
		}
	case schema.EventOrderInvalidate, schema.EventOrderRevalidate:
		chain := g.chain()
		payload = map[string]interface{}{
			"chain":            map[string]interface{}{"name": chain},
			"collection":       collection(slug),
			"event_timestamp":  rfc3339(g.now()),
			"item":             g.item(chain),
			"protocol_address": g.address(),
		}
		if eventType == schema.EventOrderRevalidate || g.faker.Bool() {
			payload["order_hash"] = g.hash()
		}
	default:
		return nil, fmt.Errorf("feedsim: %w: %q", schema.ErrUnrecognizedEventType, eventType)
	}

	return json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"sent_at":    rfc3339(g.now()),
		"payload":    payload,
	})
}

func (g *Generator) itemListed(slug string) map[string]interface{} {
	chain := g.chain()
	now := g.now()
	p := map[string]interface{}{
		"collection":      collection(slug),
		"item":            g.item(chain),
		"event_timestamp": rfc3339(now),
		"base_price":      g.price(),
		"expiration_date": epoch(now.Add(time.Duration(g.faker.Number(1, 30)) * 24 * time.Hour)),
		"is_private":      g.faker.Bool(),
		"listing_date":    epoch(now),
		"listing_type":    g.listingType(),
		"maker":           g.nestedAddress(),
		"order_hash":      g.hash(),
		"payment_token":   g.paymentToken(),
		"protocol_data":   g.protocolData(now),
		"quantity":        1,
	}
	if g.faker.Bool() {
		p["taker"] = g.nestedAddress()
	}
	return p
}

func (g *Generator) itemSold(slug string) map[string]interface{} {
	chain := g.chain()
	now := g.now()
	return map[string]interface{}{
		"collection":      collection(slug),
		"item":            g.item(chain),
		"closing_date":    rfc3339(now),
		"event_timestamp": rfc3339(now),
		"is_private":      false,
		"listing_type":    g.listingType(),
		"maker":           g.nestedAddress(),
		"order_hash":      g.hash(),
		"payment_token":   g.paymentToken(),
		"protocol_data":   g.protocolData(now),
		"quantity":        g.faker.Number(1, 3),
		"sale_price":      g.price(),
		"taker":           g.nestedAddress(),
		"transaction": map[string]interface{}{
			"hash":      g.hash(),
			"timestamp": rfc3339(now),
		},
	}
}

func (g *Generator) itemCancelled(slug string) map[string]interface{} {
	now := g.now()
	p := map[string]interface{}{
		"base_price":      g.price(),
		"collection":      collection(slug),
		"event_timestamp": rfc3339(now),
		"is_private":      false,
		"item":            g.item(g.chain()),
		"order_hash":      g.hash(),
		"payment_token":   g.paymentToken(),
		"quantity":        1,
	}
	if g.faker.Bool() {
		p["maker"] = g.nestedAddress()
		p["listing_date"] = epoch(now.Add(-time.Hour))
		p["transaction"] = map[string]interface{}{"hash": g.hash(), "timestamp": epoch(now)}
	}
	return p
}

func (g *Generator) itemTransferred(slug string) map[string]interface{} {
	now := g.now()
	p := map[string]interface{}{
		"collection":      collection(slug),
		"event_timestamp": rfc3339(now),
		"from_account":    g.nestedAddress(),
		"item":            g.item(g.chain()),
		"quantity":        1,
		"to_account":      g.nestedAddress(),
	}
	if g.faker.Bool() {
		p["transaction"] = map[string]interface{}{"hash": g.hash(), "timestamp": rfc3339(now)}
	}
	return p
}

func (g *Generator) offerTerms() map[string]interface{} {
	now := g.now()
	p := map[string]interface{}{
		"event_timestamp": rfc3339(now),
		"base_price":      g.price(),
		"created_date":    rfc3339(now),
		"expiration_date": rfc3339(now.Add(7 * 24 * time.Hour)),
		"maker":           g.nestedAddress(),
		"order_hash":      g.hash(),
		"payment_token":   g.paymentToken(),
		"quantity":        g.faker.Number(1, 5),
	}
	if g.faker.Bool() {
		p["taker"] = g.nestedAddress()
	}
	return p
}

func (g *Generator) collectionOffer(slug string) map[string]interface{} {
	p := g.offerTerms()
	p["asset_contract_criteria"] = g.nestedAddress()
	p["collection"] = collection(slug)
	p["collection_criteria"] = map[string]interface{}{"slug": slug}
	p["protocol_address"] = g.address()
	p["protocol_data"] = g.protocolData(g.now())
	return p
}

func (g *Generator) item(chain string) map[string]interface{} {
	contract := g.address()
	tokenID := fmt.Sprintf("%d", g.faker.Number(1, 10000))
	name := fmt.Sprintf("%s %s #%s", g.faker.Adjective(), g.faker.Noun(), tokenID)
	return map[string]interface{}{
		"nft_id":    chain + "/" + contract + "/" + tokenID,
		"permalink": "https://opensea.io/assets/" + chain + "/" + contract + "/" + tokenID,
		"chain":     map[string]interface{}{"name": chain},
		"metadata": map[string]interface{}{
			"name":             name,
			"description":      g.faker.Sentence(8),
			"image_url":        g.faker.URL(),
			"background_color": strings.TrimPrefix(g.faker.HexColor(), "#"),
			"traits": []map[string]interface{}{
				{"trait_type": "Background", "value": g.faker.Color()},
				{"trait_type": "Level", "value": g.faker.Number(1, 10), "display_type": "number", "max_value": 10},
			},
		},
	}
}

func (g *Generator) paymentToken() map[string]interface{} {
	return map[string]interface{}{
		"address":   "0x0000000000000000000000000000000000000000",
		"decimals":  18,
		"eth_price": "1.000000000000000",
		"name":      "Ether",
		"symbol":    "ETH",
		"usd_price": fmt.Sprintf("%.6f", g.faker.Price(1200, 4000)),
	}
}

func (g *Generator) protocolData(now time.Time) map[string]interface{} {
	offerer := g.address()
	return map[string]interface{}{
		"parameters": map[string]interface{}{
			"conduitKey": g.hash(),
			"consideration": []map[string]interface{}{{
				"itemType":             0,
				"token":                "0x0000000000000000000000000000000000000000",
				"identifierOrCriteria": "0",
				"startAmount":          g.price(),
				"endAmount":            g.price(),
				"recipient":            offerer,
			}},
			"counter": g.faker.Number(0, 3),
			"endTime": epoch(now.Add(30 * 24 * time.Hour)),
			"offer": []map[string]interface{}{{
				"itemType":             2,
				"token":                g.address(),
				"identifierOrCriteria": fmt.Sprintf("%d", g.faker.Number(1, 10000)),
				"startAmount":          "1",
				"endAmount":            "1",
			}},
			"offerer":                         offerer,
			"orderType":                       g.faker.Number(0, 3),
			"salt":                            "0x" + g.hex(8),
			"startTime":                       epoch(now),
			"totalOriginalConsiderationItems": 1,
			"zone":                            "0x0000000000000000000000000000000000000000",
			"zoneHash":                        "0x" + strings.Repeat("0", 64),
		},
		"signature": nil,
	}
}

func (g *Generator) chain() string {
	return mainnetChains[g.faker.Number(0, len(mainnetChains)-1)]
}

func (g *Generator) listingType() interface{} {
	switch g.faker.Number(0, 2) {
	case 0:
		return "english"
	case 1:
		return "dutch"
	}
	return nil
}

// price returns a wei amount as a decimal string, sometimes beyond 64 bits.
func (g *Generator) price() string {
	milli := uint256.NewInt(uint64(g.faker.Number(1, 500000)))
	return new(uint256.Int).Mul(milli, uint256.NewInt(1_000_000_000_000_000)).Dec()
}

func (g *Generator) address() string {
	return "0x" + g.hex(20)
}

func (g *Generator) nestedAddress() map[string]interface{} {
	return map[string]interface{}{"address": g.address()}
}

func (g *Generator) hash() string {
	return "0x" + g.hex(32)
}

func (g *Generator) hex(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%02x", g.faker.Number(0, 255))
	}
	return b.String()
}

func rfc3339(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000+00:00")
}

func epoch(t time.Time) string {
	return fmt.Sprintf("%d", t.Unix())
}

func collection(slug string) map[string]interface{} {
	return map[string]interface{}{"slug": slug}
}
