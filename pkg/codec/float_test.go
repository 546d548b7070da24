package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: `"1.000000000000000"`, want: 1},
		{input: `"1845.23"`, want: 1845.23},
		{input: `0.5`, want: 0.5},
		{input: `""`, wantErr: true},
		{input: `"abc"`, wantErr: true},
		{input: `null`, wantErr: true},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f Float
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFloat)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(f), 1e-9)
		})
	}
}

func TestFloatMarshalsString(t *testing.T) {
	out, err := json.Marshal(Float(1845.23))
	require.NoError(t, err)
	assert.Equal(t, `"1845.23"`, string(out))
}
