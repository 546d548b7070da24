package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChain(t *testing.T) {
	tests := []struct {
		wire    string
		want    Chain
		display string
	}{
		{"ethereum", ChainEthereum, "Ethereum"},
		{"matic", ChainPolygon, "Polygon"},
		{"goerli", ChainGoerli, "Goerli Testnet"},
		{"arbitrum_nova", ChainArbitrumNova, "Arbitrum Nova"},
		{"klaytn", ChainKlaytn, "Klaytn"},
		{"zora", ChainZora, "Zora"},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			got, err := ParseChain(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wire, got.WireName())
			assert.Equal(t, tt.display, got.String())
		})
	}
}

func TestParseChain_Unknown(t *testing.T) {
	for _, wire := range []string{"", "polygon", "Polygon", "MATIC", "dogechain"} {
		_, err := ParseChain(wire)
		assert.ErrorIs(t, err, ErrUnrecognizedNetwork, "wire %q", wire)
	}
}

func TestChain_JSON(t *testing.T) {
	for c := range chains {
		raw, err := json.Marshal(c)
		require.NoError(t, err)

		var back Chain
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, c, back)
	}

	raw, err := json.Marshal(ChainPolygon)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"matic"}`, string(raw))

	_, err = json.Marshal(ChainUnknown)
	assert.Error(t, err)

	var c Chain
	assert.ErrorIs(t, json.Unmarshal([]byte(`"matic"`), &c), ErrNotObject)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &c), ErrMissingField)
}
