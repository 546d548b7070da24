package schema

import (
	"encoding/json"
	"fmt"
)

// Chain is a network an item lives on.
type Chain uint8

const (
	ChainUnknown Chain = iota
	ChainAvalanche
	ChainBase
	ChainBSC
	ChainEthereum
	ChainOptimism
	ChainArbitrum
	ChainArbitrumNova
	ChainPolygon
	ChainKlaytn
	ChainSolana
	ChainGoerli
	ChainMumbai
	ChainBaobab
	ChainZora
	ChainSepolia
	ChainBlast
)

type chainNames struct {
	wire    string
	display string
}

var chains = map[Chain]chainNames{
	ChainAvalanche:    {wire: "avalanche", display: "Avalanche"},
	ChainBase:         {wire: "base", display: "Base"},
	ChainBSC:          {wire: "bsc", display: "BSC"},
	ChainEthereum:     {wire: "ethereum", display: "Ethereum"},
	ChainOptimism:     {wire: "optimism", display: "Optimism"},
	ChainArbitrum:     {wire: "arbitrum", display: "Arbitrum"},
	ChainArbitrumNova: {wire: "arbitrum_nova", display: "Arbitrum Nova"},
	ChainPolygon:      {wire: "matic", display: "Polygon"},
	ChainKlaytn:       {wire: "klaytn", display: "Klaytn"},
	ChainSolana:       {wire: "solana", display: "Solana"},
	ChainGoerli:       {wire: "goerli", display: "Goerli Testnet"},
	ChainMumbai:       {wire: "mumbai", display: "Mumbai Testnet"},
	ChainBaobab:       {wire: "baobab", display: "Baobab Testnet"},
	ChainZora:         {wire: "zora", display: "Zora"},
	ChainSepolia:      {wire: "sepolia", display: "Sepolia Testnet"},
	ChainBlast:        {wire: "blast", display: "Blast"},
}

var chainsByWire = func() map[string]Chain {
	m := make(map[string]Chain, len(chains))
	for c, n := range chains {
		m[n.wire] = c
	}
	return m
}()

// ParseChain resolves a wire name. Unknown names are an error, never a default.
func ParseChain(wire string) (Chain, error) {
	c, ok := chainsByWire[wire]
	if !ok {
		return ChainUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedNetwork, wire)
	}
	return c, nil
}

// WireName returns the name used on the wire, e.g. "matic" for Polygon.
func (c Chain) WireName() string {
	return chains[c].wire
}

// String returns the display name, which is not always the wire name.
func (c Chain) String() string {
	if n, ok := chains[c]; ok {
		return n.display
	}
	return fmt.Sprintf("Chain(%d)", uint8(c))
}

type chainObject struct {
	Name string `json:"name"`
}

func (c Chain) MarshalJSON() ([]byte, error) {
	if _, ok := chains[c]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnrecognizedNetwork, uint8(c))
	}
	return json.Marshal(chainObject{Name: c.WireName()})
}

func (c *Chain) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	var name string
	o.required("name", &name)
	if o.err != nil {
		return o.err
	}
	parsed, err := ParseChain(name)
	if err != nil {
		return wrapField("name", err)
	}
	*c = parsed
	return nil
}
