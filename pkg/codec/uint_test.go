package codec

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "zero", input: "0", want: "0"},
		{name: "leading zeros", input: "000123", want: "123"},
		{name: "above 64 bits", input: "18446744073709551616", want: "18446744073709551616"},
		{name: "wei price", input: "1230000000000000000000", want: "1230000000000000000000"},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "plus sign", input: "+1", wantErr: true},
		{name: "hex", input: "0x10", wantErr: true},
		{name: "decimal point", input: "1.5", wantErr: true},
		{name: "whitespace", input: " 1", wantErr: true},
		{name: "overflow", input: "115792089237316195423570985008687907853269984665640564039457584007913129639936", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUint(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, EncodeUint(got))
		})
	}
}

func TestUintRoundTrip(t *testing.T) {
	values := []*uint256.Int{
		uint256.NewInt(0),
		uint256.NewInt(1),
		uint256.NewInt(^uint64(0)),
		new(uint256.Int).Lsh(uint256.NewInt(1), 127),
		new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1)),
		new(uint256.Int).SetAllOne(),
	}
	for _, v := range values {
		encoded := EncodeUint(v)
		if v.IsZero() {
			assert.Equal(t, "0", encoded)
		} else {
			assert.NotEqual(t, byte('0'), encoded[0], "leading zero in %s", encoded)
		}

		decoded, err := DecodeUint(encoded)
		require.NoError(t, err)
		assert.True(t, v.Eq(decoded), "round trip mismatch for %s", encoded)
	}
}

func TestEncodeUintNil(t *testing.T) {
	assert.Equal(t, "0", EncodeUint(nil))
}

func TestUint256JSON(t *testing.T) {
	var holder struct {
		Price Uint256 `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"340282366920938463463374607431768211456"}`), &holder))
	assert.Equal(t, "340282366920938463463374607431768211456", holder.Price.String())

	out, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"340282366920938463463374607431768211456"}`, string(out))

	err = json.Unmarshal([]byte(`{"price":12}`), &holder)
	assert.ErrorIs(t, err, ErrInvalidUint)
}
