package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attributes is an insertion-ordered mapping of property name to value.
// The zero value is empty and ready to use.
type Attributes struct {
	keys   []string
	values map[string]Value
}

// NewAttributes builds Attributes from pairs, keeping their order.
func NewAttributes(pairs ...Pair) Attributes {
	var a Attributes
	for _, p := range pairs {
		a.Set(p.Name, p.Value)
	}
	return a
}

// Pair is a single named property.
type Pair struct {
	Name  string
	Value Value
}

// Set stores v under name. A new name is appended; an existing name keeps
// its position.
func (a *Attributes) Set(name string, v Value) {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	if _, exists := a.values[name]; !exists {
		a.keys = append(a.keys, name)
	}
	a.values[name] = v
}

// Get returns the value stored under name.
func (a Attributes) Get(name string) (Value, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Has reports whether name is present, regardless of its value.
func (a Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Keys returns the property names in order.
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

func (a Attributes) Len() int { return len(a.keys) }

// Each calls fn for every property in order.
func (a Attributes) Each(fn func(name string, v Value)) {
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("snapshot: marshal property %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	*a = Attributes{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return WalkObject(data, func(name string, raw json.RawMessage) error {
		v, err := parseValue(raw)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		a.Set(name, v)
		return nil
	})
}

// WalkObject calls fn for each member of a JSON object in document order.
func WalkObject(data []byte, fn func(name string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("snapshot: read object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot: expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("snapshot: read object key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("snapshot: unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("snapshot: read value of %q: %w", name, err)
		}
		if err := fn(name, raw); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("snapshot: close object: %w", err)
	}
	return nil
}
