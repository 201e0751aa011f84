package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// titleFallbacks are checked when no title-typed property has text.
var titleFallbacks = []string{"タイトル", "Title", "name", "Name", "プロンプト"}

// FlattenProperty reduces a typed Notion property to a snapshot value.
func FlattenProperty(raw json.RawMessage) (snapshot.Value, error) {
	var prop map[string]json.RawMessage
	if err := json.Unmarshal(raw, &prop); err != nil {
		return snapshot.Value{}, fmt.Errorf("notion: property is not an object: %w", err)
	}
	var typ string
	if t, ok := prop["type"]; ok {
		if err := json.Unmarshal(t, &typ); err != nil {
			return snapshot.Value{}, fmt.Errorf("notion: property type: %w", err)
		}
	}
	if typ == "" {
		return snapshot.Null(), nil
	}
	return flattenTyped(typ, prop[typ])
}

func flattenTyped(typ string, value json.RawMessage) (snapshot.Value, error) {
	if isNull(value) {
		switch typ {
		case "multi_select", "people", "files", "relation":
			return snapshot.List(), nil
		case "title", "rich_text":
			return snapshot.String(""), nil
		case "checkbox":
			return snapshot.Bool(false), nil
		}
		return snapshot.Null(), nil
	}

	switch typ {
	case "title", "rich_text":
		var blocks []richText
		if err := json.Unmarshal(value, &blocks); err != nil {
			return snapshot.String(""), nil
		}
		var b strings.Builder
		for _, block := range blocks {
			switch {
			case block.PlainText != "":
				b.WriteString(block.PlainText)
			case block.Text != nil:
				b.WriteString(block.Text.Content)
			}
		}
		return snapshot.String(strings.TrimSpace(b.String())), nil

	case "select", "status":
		var n named
		if err := json.Unmarshal(value, &n); err != nil {
			return snapshot.Value{}, fmt.Errorf("notion: %s: %w", typ, err)
		}
		return snapshot.String(n.Name), nil

	case "multi_select":
		var items []named
		if err := json.Unmarshal(value, &items); err != nil {
			return snapshot.List(), nil
		}
		var names []string
		for _, item := range items {
			if item.Name != "" {
				names = append(names, item.Name)
			}
		}
		return snapshot.List(names...), nil

	case "people":
		var people []named
		if err := json.Unmarshal(value, &people); err != nil {
			return snapshot.List(), nil
		}
		names := make([]string, 0, len(people))
		for _, p := range people {
			if p.Name != "" {
				names = append(names, p.Name)
			} else {
				names = append(names, p.ID)
			}
		}
		return snapshot.List(names...), nil

	case "checkbox":
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return snapshot.Bool(false), nil
		}
		return snapshot.Bool(b), nil

	case "date":
		var d dateValue
		if err := json.Unmarshal(value, &d); err != nil {
			return snapshot.Null(), nil
		}
		return snapshot.NestedOf(d)

	case "files":
		var files []fileObject
		if err := json.Unmarshal(value, &files); err != nil {
			return snapshot.List(), nil
		}
		var out []string
		for _, f := range files {
			switch {
			case f.Name != "":
				out = append(out, f.Name)
			case f.External != nil && f.External.URL != "":
				out = append(out, f.External.URL)
			case f.File != nil && f.File.URL != "":
				out = append(out, f.File.URL)
			}
		}
		return snapshot.List(out...), nil

	case "relation":
		var rels []named
		if err := json.Unmarshal(value, &rels); err != nil {
			return snapshot.List(), nil
		}
		ids := make([]string, len(rels))
		for i, r := range rels {
			ids[i] = r.ID
		}
		return snapshot.List(ids...), nil

	case "formula":
		var f map[string]json.RawMessage
		if err := json.Unmarshal(value, &f); err != nil {
			return snapshot.Null(), nil
		}
		inner := "string"
		if t, ok := f["type"]; ok {
			_ = json.Unmarshal(t, &inner)
		}
		return decodeValue(f[inner])

	case "rollup":
		var r rollupValue
		if err := json.Unmarshal(value, &r); err != nil {
			return decodeValue(value)
		}
		switch r.Type {
		case "number":
			return decodeValue(r.Number)
		case "date":
			return decodeValue(r.Date)
		case "array":
			items := make([]snapshot.Value, 0, len(r.Array))
			for _, item := range r.Array {
				v, err := FlattenProperty(item)
				if err != nil {
					continue
				}
				items = append(items, v)
			}
			return combine(items)
		}
		return decodeValue(value)
	}

	// url, email, phone_number, number and anything unknown pass through.
	return decodeValue(value)
}

// FlattenProperties flattens a page's property object, keeping property
// order, and infers the page title.
func FlattenProperties(raw json.RawMessage) (snapshot.Attributes, string, error) {
	var attrs snapshot.Attributes
	if isNull(raw) {
		return attrs, "", nil
	}

	title := ""
	err := snapshot.WalkObject(raw, func(name string, prop json.RawMessage) error {
		v, err := FlattenProperty(prop)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		attrs.Set(name, v)
		if title == "" && propertyType(prop) == "title" {
			if s, ok := v.Text(); ok {
				title = s
			}
		}
		return nil
	})
	if err != nil {
		return snapshot.Attributes{}, "", err
	}

	if title == "" {
		for _, key := range titleFallbacks {
			if v, ok := attrs.Get(key); ok && v.Truthy() {
				title = v.Stringify()
				break
			}
		}
	}
	return attrs, title, nil
}

func propertyType(prop json.RawMessage) string {
	var p struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(prop, &p)
	return p.Type
}

func decodeValue(raw json.RawMessage) (snapshot.Value, error) {
	if isNull(raw) {
		return snapshot.Null(), nil
	}
	var v snapshot.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return snapshot.Value{}, fmt.Errorf("notion: decode value: %w", err)
	}
	return v, nil
}

// combine turns flattened values into one value: a list when every item is
// a scalar, a nested array otherwise.
func combine(items []snapshot.Value) (snapshot.Value, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return snapshot.Value{}, fmt.Errorf("notion: combine values: %w", err)
	}
	return decodeValue(data)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
