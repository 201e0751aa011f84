package snapshot

import (
	"sort"
	"time"
)

// New assembles a snapshot from flattened records, deriving the property
// key list and category summary.
func New(records []Record, source, databaseID string, generatedAt time.Time) *Snapshot {
	seen := make(map[string]struct{})
	for _, r := range records {
		r.Properties.Each(func(name string, _ Value) {
			seen[name] = struct{}{}
		})
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	field := InferCategoryField(records, nil)
	return &Snapshot{
		GeneratedAt:   generatedAt,
		Source:        source,
		DatabaseID:    databaseID,
		PropertyKeys:  keys,
		CategoryField: field,
		Categories:    SummarizeCategories(records, field),
		Records:       records,
	}
}
