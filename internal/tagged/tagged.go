// Package tagged encodes and decodes JSON records that carry their variant
// name in a "type" field, the layout tokenizer.json uses for normalizers and
// pre-tokenizers.
package tagged

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// ErrUnknownType is returned when a record names a variant with no factory.
var ErrUnknownType = errors.New("unknown type")

// Factory builds a value from the raw record, "type" field included.
type Factory[T any] func(raw json.RawMessage) (T, error)

// Registry maps variant names to factories.
type Registry[T any] map[string]Factory[T]

// Decode reads the record's type and hands the record to its factory.
func (r Registry[T]) Decode(raw json.RawMessage) (T, error) {
	var zero T
	name, err := TypeOf(raw)
	if err != nil {
		return zero, err
	}
	f, ok := r[name]
	if !ok {
		return zero, fmt.Errorf("%w %q (known: %v)", ErrUnknownType, name, r.Names())
	}
	v, err := f(raw)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// Names returns the registered variant names, sorted.
func (r Registry[T]) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// TypeOf returns the "type" field of a record.
func TypeOf(raw json.RawMessage) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("decode tagged record: %w", err)
	}
	if head.Type == "" {
		return "", errors.New(`decode tagged record: missing "type"`)
	}
	return head.Type, nil
}

// Strict decodes the record's fields other than "type" into v, rejecting
// unknown fields. A record with no other fields leaves v untouched.
func Strict(raw json.RawMessage, v any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	delete(fields, "type")
	if len(fields) == 0 {
		return nil
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Encode marshals v as an object and adds the "type" field.
func Encode(name string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	fields["type"] = json.RawMessage(strconv.Quote(name))
	return json.Marshal(fields)
}
