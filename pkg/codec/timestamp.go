package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DecodeTimestamp accepts an RFC 3339 string with an explicit offset, a string
// holding epoch seconds, or a JSON number holding epoch seconds.
func DecodeTimestamp(data []byte) (time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		return ParseTimestamp(s)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return time.Time{}, fmt.Errorf("%w: expected string or number", ErrInvalidTimestamp)
	}
	return parseEpoch(n.String())
}

// ParseTimestamp parses the string forms accepted by DecodeTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidTimestamp)
	}
	if strings.ContainsAny(s, "T:") {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, s, err)
		}
		return t.UTC(), nil
	}
	return parseEpoch(s)
}

// EncodeTimestamp renders t as a JSON string of epoch seconds.
func EncodeTimestamp(t time.Time) []byte {
	return []byte(strconv.Quote(strconv.FormatInt(t.Unix(), 10)))
}

func parseEpoch(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not epoch seconds", ErrInvalidTimestamp, s)
	}
	secs := int64(f)
	nanos := int64((f - float64(secs)) * float64(time.Second))
	return time.Unix(secs, nanos).UTC(), nil
}

// Timestamp is an instant that decodes from either wire form and always
// encodes as epoch seconds.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return EncodeTimestamp(t.Time), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	v, err := DecodeTimestamp(data)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}
