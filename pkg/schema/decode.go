package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField          = errors.New("schema: missing required field")
	ErrNotObject             = errors.New("schema: expected JSON object")
	ErrUnrecognizedEventType = errors.New("schema: unrecognized event type")
	ErrUnrecognizedNetwork   = errors.New("schema: unrecognized network")
	ErrInvalidNftID          = errors.New("schema: invalid nft id")
	ErrInvalidListingType    = errors.New("schema: invalid listing type")
)

// FieldError reports a decode failure together with the dotted path of the
// field that caused it, e.g. "payload.item.nft_id".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("schema: %s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapField prefixes err with key, merging nested FieldErrors into one path.
func wrapField(key string, err error) error {
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{Path: joinPath(key, fe.Path), Err: fe.Err}
	}
	return &FieldError{Path: key, Err: err}
}

func joinPath(parent, child string) string {
	if strings.HasPrefix(child, "[") {
		return parent + child
	}
	return parent + "." + child
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// object decodes one JSON object field by field, remembering the first error.
type object struct {
	fields map[string]json.RawMessage
	err    error
}

func decodeObject(data []byte) (*object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if fields == nil {
		return nil, ErrNotObject
	}
	return &object{fields: fields}, nil
}

// required decodes key into dst. Absent and null values are errors.
func (o *object) required(key string, dst any) {
	if o.err != nil {
		return
	}
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		o.err = &FieldError{Path: key, Err: ErrMissingField}
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		o.err = wrapField(key, err)
	}
}

// optional decodes key into dst when present and not null.
func (o *object) optional(key string, dst any) {
	if o.err != nil {
		return
	}
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		o.err = wrapField(key, err)
	}
}

// with runs fn against the raw value of a required key.
func (o *object) with(key string, fn func(json.RawMessage) error) {
	if o.err != nil {
		return
	}
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		o.err = &FieldError{Path: key, Err: ErrMissingField}
		return
	}
	if err := fn(raw); err != nil {
		o.err = wrapField(key, err)
	}
}

func (o *object) has(key string) bool {
	raw, ok := o.fields[key]
	return ok && !isNull(raw)
}

// list decodes a JSON array element by element so failures carry an index.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make([]T, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &out[i]); err != nil {
			return wrapField(fmt.Sprintf("[%d]", i), err)
		}
	}
	*l = out
	return nil
}
