package codec

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// DecodeUint parses a base-10 digit string into a 256-bit unsigned integer.
// Signs, hex prefixes and surrounding whitespace are rejected.
func DecodeUint(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidUint)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidUint, s)
		}
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidUint, s, err)
	}
	return v, nil
}

// EncodeUint renders v as canonical decimal digits. A nil value encodes as "0".
func EncodeUint(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Uint256 is an unsigned amount carried on the wire as a decimal string.
type Uint256 uint256.Int

// NewUint256 converts v into a Uint256 field value.
func NewUint256(v *uint256.Int) Uint256 {
	if v == nil {
		return Uint256{}
	}
	return Uint256(*v)
}

// Int returns a copy of the value as a *uint256.Int.
func (u Uint256) Int() *uint256.Int {
	v := uint256.Int(u)
	return &v
}

func (u Uint256) String() string {
	return EncodeUint(u.Int())
}

func (u Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected decimal string", ErrInvalidUint)
	}
	v, err := DecodeUint(s)
	if err != nil {
		return err
	}
	*u = Uint256(*v)
	return nil
}
