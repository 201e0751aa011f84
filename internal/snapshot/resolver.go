package snapshot

import (
	"sort"
	"strings"
)

// DefaultIDFields are the custom identifier properties, in priority order.
var DefaultIDFields = []string{"ID", "Id"}

// DefaultCategoryFallbacks are probed when the preferred category field is
// missing from a record.
var DefaultCategoryFallbacks = []string{"カテゴリ", "Category", "カテゴリー"}

// CategoryCandidates are scanned to infer a snapshot's category field.
var CategoryCandidates = []string{"カテゴリ", "カテゴリー", "category", "Category"}

// Resolver computes identity, display labels and categories for records.
// The zero Resolver uses the package defaults.
type Resolver struct {
	IDFields          []string
	CategoryFallbacks []string
}

// DefaultResolver returns a Resolver with the package defaults filled in.
func DefaultResolver() Resolver {
	return Resolver{
		IDFields:          DefaultIDFields,
		CategoryFallbacks: DefaultCategoryFallbacks,
	}
}

func (rs Resolver) idFields() []string {
	if rs.IDFields == nil {
		return DefaultIDFields
	}
	return rs.IDFields
}

func (rs Resolver) categoryFallbacks() []string {
	if rs.CategoryFallbacks == nil {
		return DefaultCategoryFallbacks
	}
	return rs.CategoryFallbacks
}

// Key returns the stable identifier of r: the first non-empty custom ID
// property, else the page id, else the URL.
func (rs Resolver) Key(r Record) string {
	for _, field := range rs.idFields() {
		v, ok := r.Properties.Get(field)
		if !ok {
			continue
		}
		if s, ok := v.Text(); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	if r.PageID != "" {
		return r.PageID
	}
	return r.URL
}

// Label returns "<id>: <title>" unless the id already appears in the title.
// Records without a title are labelled by their id.
func (rs Resolver) Label(r Record) string {
	identifier := ""
	for _, field := range rs.idFields() {
		if v, ok := r.Properties.Get(field); ok && v.Truthy() {
			identifier = v.Stringify()
			break
		}
	}
	if identifier == "" {
		identifier = r.PageID
	}
	if identifier == "" && r.Title == "" {
		identifier = r.URL
	}

	title := r.Title
	if title == "" {
		title = identifier
	}
	if identifier != "" && !strings.Contains(title, identifier) {
		return identifier + ": " + title
	}
	return title
}

// Category resolves the category label of r. The preferred field wins when
// present; otherwise the fallback fields are probed in order. ok is false
// when no category applies.
func (rs Resolver) Category(r Record, preferred string) (string, bool) {
	if preferred != "" {
		if v, present := r.Properties.Get(preferred); present {
			switch v.Kind() {
			case KindList:
				items := v.Items()
				if len(items) == 0 || items[0] == "" {
					return "", false
				}
				return items[0], true
			case KindScalar:
				// Only text counts; numbers and flags fall through to
				// the fallbacks.
				if s, isText := v.scalar.(string); isText {
					return s, s != ""
				}
			}
		}
	}

	for _, field := range rs.categoryFallbacks() {
		v, present := r.Properties.Get(field)
		if !present {
			continue
		}
		switch v.Kind() {
		case KindList:
			if items := v.Items(); len(items) > 0 {
				return items[0], true
			}
		case KindScalar:
			if v.Truthy() {
				s, _ := v.Text()
				return s, true
			}
		}
	}
	return "", false
}

// Index maps each record's key to the record. When two records share a key
// the later one wins; collisions are not errors.
func (rs Resolver) Index(records []Record) map[string]Record {
	index := make(map[string]Record, len(records))
	for _, r := range records {
		index[rs.Key(r)] = r
	}
	return index
}

// InferCategoryField returns the first candidate field present on any
// record, scanning records in order.
func InferCategoryField(records []Record, candidates []string) string {
	if candidates == nil {
		candidates = CategoryCandidates
	}
	for _, r := range records {
		for _, c := range candidates {
			if r.Properties.Has(c) {
				return c
			}
		}
	}
	return ""
}

// SummarizeCategories counts category values of field across records. List
// values count every non-empty element. Rows sort by count desc, then name.
func SummarizeCategories(records []Record, field string) []CategoryCount {
	if field == "" {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range records {
		v, ok := r.Properties.Get(field)
		if !ok {
			continue
		}
		switch v.Kind() {
		case KindList:
			for _, item := range v.Items() {
				if item != "" {
					counts[item]++
				}
			}
		case KindScalar:
			if v.Truthy() {
				s, _ := v.Text()
				counts[s]++
			}
		}
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
