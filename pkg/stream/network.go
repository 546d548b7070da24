package stream

import (
	"fmt"
	"net/url"
	"strings"
)

// Network selects one of the two feed endpoints.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

const (
	mainnetEndpoint = "wss://stream.openseabeta.com/socket/websocket"
	testnetEndpoint = "wss://testnets-stream.openseabeta.com/socket/websocket"
)

// Endpoint returns the WebSocket URL of the network's feed.
func (n Network) Endpoint() string {
	if n == Testnet {
		return testnetEndpoint
	}
	return mainnetEndpoint
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	}
	return fmt.Sprintf("Network(%d)", int(n))
}

// ParseNetwork accepts "mainnet" or "testnet".
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(s) {
	case "mainnet", "":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	}
	return 0, fmt.Errorf("stream: unknown network %q", s)
}

// Topic addresses a subscription.
type Topic string

// AllCollections subscribes to every collection.
const AllCollections Topic = "collection:*"

// Collection returns the topic for one collection slug.
func Collection(slug string) Topic {
	return Topic("collection:" + slug)
}

// ParseTopic accepts a slug, "*", or an already qualified "collection:..." topic.
func ParseTopic(s string) Topic {
	switch {
	case s == "*" || s == "":
		return AllCollections
	case strings.HasPrefix(s, "collection:"):
		return Topic(s)
	}
	return Collection(s)
}

func (t Topic) String() string {
	return string(t)
}

// connectURL appends the API key as the token query parameter.
func connectURL(endpoint, apiKey string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("stream: endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
