package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrMalformed reports a snapshot document without the expected shape.
var ErrMalformed = errors.New("snapshot: malformed document")

// now is replaced in tests.
var now = time.Now

type fileSnapshot struct {
	GeneratedAt     string           `json:"generated_at"`
	Source          string           `json:"source"`
	DatabaseID      *string          `json:"database_id"`
	RecordCount     int              `json:"record_count"`
	PropertyKeys    []string         `json:"property_keys"`
	CategorySummary *categorySummary `json:"category_summary"`
	Records         []fileRecord     `json:"records"`
}

// fileHeader is the decode-side view of fileSnapshot; records stay raw so a
// missing list can be told apart from an empty one.
type fileHeader struct {
	GeneratedAt     string           `json:"generated_at"`
	Source          string           `json:"source"`
	DatabaseID      *string          `json:"database_id"`
	PropertyKeys    []string         `json:"property_keys"`
	CategorySummary *categorySummary `json:"category_summary"`
	Records         json.RawMessage  `json:"records"`
}

type categorySummary struct {
	Field  string          `json:"field"`
	Counts []categoryCount `json:"counts"`
}

// categoryCount encodes as a [name, count] pair.
type categoryCount CategoryCount

func (c categoryCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Name, c.Count})
}

func (c *categoryCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return fmt.Errorf("%w: category count must be a [name, count] pair", ErrMalformed)
	}
	if err := json.Unmarshal(pair[0], &c.Name); err != nil {
		return fmt.Errorf("%w: category name: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(pair[1], &c.Count); err != nil {
		return fmt.Errorf("%w: category count: %v", ErrMalformed, err)
	}
	return nil
}

type fileRecord struct {
	PageID         string     `json:"page_id"`
	Title          *string    `json:"title"`
	URL            string     `json:"url"`
	Archived       bool       `json:"archived"`
	CreatedTime    *string    `json:"created_time"`
	LastEditedTime *string    `json:"last_edited_time"`
	Properties     Attributes `json:"properties"`
}

// readRecord tolerates the alternate id spellings and null timestamps seen
// in older snapshot files.
type readRecord struct {
	PageID         *string    `json:"page_id"`
	ID             *string    `json:"id"`
	Title          *string    `json:"title"`
	URL            *string    `json:"url"`
	Archived       *bool      `json:"archived"`
	CreatedTime    *string    `json:"created_time"`
	LastEditedTime *string    `json:"last_edited_time"`
	Properties     Attributes `json:"properties"`
}

func (rr readRecord) toRecord() Record {
	r := Record{
		Title:          deref(rr.Title),
		URL:            deref(rr.URL),
		CreatedTime:    deref(rr.CreatedTime),
		LastEditedTime: deref(rr.LastEditedTime),
		Properties:     rr.Properties,
	}
	if rr.Archived != nil {
		r.Archived = *rr.Archived
	}
	switch {
	case deref(rr.PageID) != "":
		r.PageID = *rr.PageID
	case deref(rr.ID) != "":
		r.PageID = *rr.ID
	default:
		r.PageID = r.URL
	}
	return r
}

// nullable maps the empty string to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Decode parses a snapshot document. A document that is not an object or
// lacks a records array is rejected with ErrMalformed rather than read as an
// empty snapshot.
func Decode(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level must be a JSON object", ErrMalformed)
	}

	var doc fileHeader
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	records := bytes.TrimSpace(doc.Records)
	if len(records) == 0 || bytes.Equal(records, []byte("null")) {
		return nil, fmt.Errorf("%w: missing records list", ErrMalformed)
	}
	if records[0] != '[' {
		return nil, fmt.Errorf("%w: records must be a list", ErrMalformed)
	}

	var raw []readRecord
	if err := json.Unmarshal(records, &raw); err != nil {
		return nil, fmt.Errorf("%w: records: %v", ErrMalformed, err)
	}

	snap := &Snapshot{
		Source:       doc.Source,
		DatabaseID:   deref(doc.DatabaseID),
		PropertyKeys: doc.PropertyKeys,
		Records:      make([]Record, 0, len(raw)),
	}
	if t, ok := ParseTimestamp(doc.GeneratedAt); ok {
		snap.GeneratedAt = t
	} else {
		snap.GeneratedAt = now().UTC()
	}
	for _, rr := range raw {
		snap.Records = append(snap.Records, rr.toRecord())
	}

	if doc.CategorySummary != nil {
		snap.CategoryField = doc.CategorySummary.Field
		for _, c := range doc.CategorySummary.Counts {
			snap.Categories = append(snap.Categories, CategoryCount(c))
		}
	}
	if snap.CategoryField == "" {
		snap.CategoryField = InferCategoryField(snap.Records, nil)
	}

	return snap, nil
}

// Encode renders s in the snapshot file format.
func Encode(s *Snapshot, pretty bool) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot: encode nil snapshot")
	}

	records := make([]fileRecord, len(s.Records))
	for i, r := range s.Records {
		records[i] = fileRecord{
			PageID:         r.PageID,
			Title:          nullable(r.Title),
			URL:            r.URL,
			Archived:       r.Archived,
			CreatedTime:    nullable(r.CreatedTime),
			LastEditedTime: nullable(r.LastEditedTime),
			Properties:     r.Properties,
		}
	}
	doc := fileSnapshot{
		GeneratedAt:  FormatTimestamp(s.GeneratedAt),
		Source:       s.Source,
		RecordCount:  len(s.Records),
		PropertyKeys: s.PropertyKeys,
		Records:      records,
	}
	if doc.PropertyKeys == nil {
		doc.PropertyKeys = []string{}
	}
	doc.DatabaseID = nullable(s.DatabaseID)
	if s.CategoryField != "" {
		summary := &categorySummary{Field: s.CategoryField, Counts: []categoryCount{}}
		for _, c := range s.Categories {
			summary.Counts = append(summary.Counts, categoryCount(c))
		}
		doc.CategorySummary = summary
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ReadFile loads a snapshot from a JSON file.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snap.Path = path
	return snap, nil
}

// WriteFile saves s as JSON at path, creating parent directories.
func WriteFile(path string, s *Snapshot, pretty bool) error {
	data, err := Encode(s, pretty)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}
