package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the shape of a property value.
type Kind int

const (
	KindScalar Kind = iota // string, number, bool or null
	KindList               // array of scalars
	KindNested             // any other JSON structure, kept verbatim
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Value is a flattened property value. The zero Value is a null scalar.
type Value struct {
	kind   Kind
	scalar any // string, json.Number, bool or nil
	list   []any
	raw    json.RawMessage
}

// Null returns a null scalar.
func Null() Value { return Value{} }

// String returns a text scalar.
func String(s string) Value { return Value{scalar: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{scalar: b} }

// Number returns a numeric scalar from its JSON literal, e.g. "3" or "1.5".
func Number(n string) Value { return Value{scalar: json.Number(n)} }

// List returns a list of text scalars.
func List(items ...string) Value {
	list := make([]any, len(items))
	for i, s := range items {
		list[i] = s
	}
	return Value{kind: KindList, list: list}
}

// Nested wraps an arbitrary JSON structure.
func Nested(raw json.RawMessage) Value {
	return Value{kind: KindNested, raw: compact(raw)}
}

// NestedOf marshals v and wraps it as a nested value.
func NestedOf(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("snapshot: marshal nested value: %w", err)
	}
	return Nested(data), nil
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is a null scalar.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// Text returns the scalar rendered as text. Non-scalars and null return
// ok=false.
func (v Value) Text() (string, bool) {
	if v.kind != KindScalar || v.scalar == nil {
		return "", false
	}
	return scalarText(v.scalar), true
}

// Items returns the list elements rendered as text.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	out := make([]string, len(v.list))
	for i, item := range v.list {
		out[i] = scalarText(item)
	}
	return out
}

// Len returns the number of list elements; scalars and nested values report 0.
func (v Value) Len() int { return len(v.list) }

// Raw returns the JSON encoding of a nested value.
func (v Value) Raw() json.RawMessage { return v.raw }

// Truthy follows the loose truthiness used when probing fallback fields:
// empty strings, false, zero, null and empty lists are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindList:
		return len(v.list) > 0
	case KindNested:
		trimmed := bytes.TrimSpace(v.raw)
		return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("{}")) && !bytes.Equal(trimmed, []byte("[]")) && !bytes.Equal(trimmed, []byte("null"))
	}
	switch s := v.scalar.(type) {
	case nil:
		return false
	case string:
		return s != ""
	case bool:
		return s
	case json.Number:
		f, err := s.Float64()
		return err != nil || f != 0
	}
	return true
}

// Stringify renders the value for flat exports: text lists join with "; ",
// other non-scalars are JSON, null is empty.
func (v Value) Stringify() string {
	switch v.kind {
	case KindList:
		allText := true
		for _, item := range v.list {
			if _, ok := item.(string); !ok {
				allText = false
				break
			}
		}
		if allText {
			parts := make([]string, 0, len(v.list))
			for _, item := range v.list {
				if s := item.(string); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, "; ")
		}
		data, _ := json.Marshal(v.list)
		return string(data)
	case KindNested:
		return string(v.raw)
	}
	if v.scalar == nil {
		return ""
	}
	return scalarText(v.scalar)
}

// Equal compares two values by content.
func (v Value) Equal(o Value) bool {
	a, errA := json.Marshal(v)
	b, errB := json.Marshal(o)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindList:
		return json.Marshal(v.list)
	case KindNested:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	}
	return json.Marshal(v.scalar)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := parseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// parseValue classifies a raw JSON value into the closed Value variant.
func parseValue(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("snapshot: empty property value")
	}

	switch trimmed[0] {
	case '{':
		if !json.Valid(trimmed) {
			return Value{}, fmt.Errorf("snapshot: invalid property object")
		}
		return Nested(trimmed), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Value{}, fmt.Errorf("snapshot: invalid property array: %w", err)
		}
		list := make([]any, 0, len(items))
		for _, item := range items {
			s, ok, err := decodeScalar(item)
			if err != nil {
				return Value{}, err
			}
			if !ok {
				return Nested(trimmed), nil
			}
			list = append(list, s)
		}
		return Value{kind: KindList, list: list}, nil
	}

	s, ok, err := decodeScalar(trimmed)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Nested(trimmed), nil
	}
	return Value{scalar: s}, nil
}

func decodeScalar(data []byte) (any, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("snapshot: empty value")
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false, fmt.Errorf("snapshot: invalid scalar %q: %w", trimmed, err)
	}
	return out, true, nil
}

func scalarText(s any) string {
	switch t := s.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
