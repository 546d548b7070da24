// Package codec provides the per-field wire encodings used by the marketplace
// event feed.
//
// The upstream feed is not uniform about how it represents values: some
// addresses arrive wrapped in an object, token amounts arrive as decimal
// strings that overflow 64 bits, and timestamps arrive either as RFC 3339
// strings or as epoch seconds. Each shape gets its own decode/encode pair here
// so that the schema types can stay declarative.
package codec

import "errors"

var (
	ErrInvalidAddress   = errors.New("codec: invalid address")
	ErrInvalidUint      = errors.New("codec: invalid unsigned integer")
	ErrInvalidTimestamp = errors.New("codec: invalid timestamp")
	ErrInvalidFloat     = errors.New("codec: invalid float")
)

// isNull reports whether data is the JSON literal null.
func isNull(data []byte) bool {
	return len(data) == 4 && string(data) == "null"
}
