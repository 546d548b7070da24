package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// nestedAddress is the wire wrapper: {"address": "0x..."}.
type nestedAddress struct {
	Address *string `json:"address"`
}

// DecodeAddress decodes an address carried inside a single-field object.
func DecodeAddress(data []byte) (common.Address, error) {
	var wrapper nestedAddress
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if wrapper.Address == nil {
		return common.Address{}, fmt.Errorf("%w: missing address field", ErrInvalidAddress)
	}
	return ParseAddress(*wrapper.Address)
}

// EncodeAddress wraps addr back into the single-field object shape.
func EncodeAddress(addr common.Address) ([]byte, error) {
	s := strings.ToLower(addr.Hex())
	return json.Marshal(nestedAddress{Address: &s})
}

// ParseAddress parses a bare 40 hex character address, with or without the 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not 20 bytes of hex", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// NestedAddress is an address field whose wire form is {"address": "0x..."}.
type NestedAddress common.Address

// Address returns the plain address value.
func (a NestedAddress) Address() common.Address {
	return common.Address(a)
}

func (a NestedAddress) String() string {
	return strings.ToLower(common.Address(a).Hex())
}

func (a NestedAddress) MarshalJSON() ([]byte, error) {
	return EncodeAddress(common.Address(a))
}

func (a *NestedAddress) UnmarshalJSON(data []byte) error {
	addr, err := DecodeAddress(data)
	if err != nil {
		return err
	}
	*a = NestedAddress(addr)
	return nil
}
