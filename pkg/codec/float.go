package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// Float is a floating point value that may arrive as a JSON string or number.
// It always encodes as a string.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(f), 'f', -1, 64))
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFloat, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: null", ErrInvalidFloat)
	}
	switch v := raw.(type) {
	case bool:
		return fmt.Errorf("%w: boolean", ErrInvalidFloat)
	case string:
		if v == "" {
			return fmt.Errorf("%w: empty string", ErrInvalidFloat)
		}
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFloat, err)
	}
	*f = Float(v)
	return nil
}
