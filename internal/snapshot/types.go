package snapshot

import (
	"time"
)

// Record is a single tracked page of the prompt library.
type Record struct {
	// PageID is the upstream page id.
	PageID string
	// Title is the display title; empty when the page has none.
	Title string
	// URL is the upstream page URL.
	URL string
	// Archived records are ignored by classification.
	Archived bool
	// CreatedTime and LastEditedTime hold the raw upstream strings so a
	// store round trip does not alter them. Use Created / LastEdited for
	// parsed values.
	CreatedTime    string
	LastEditedTime string
	// Properties holds the flattened page properties in upstream order.
	Properties Attributes
}

// Created returns the parsed creation time.
func (r Record) Created() (time.Time, bool) { return ParseTimestamp(r.CreatedTime) }

// LastEdited returns the parsed last-modified time.
func (r Record) LastEdited() (time.Time, bool) { return ParseTimestamp(r.LastEditedTime) }

// LastTouch prefers the last-edited time and falls back to the creation
// time. A record with neither has no last touch.
func (r Record) LastTouch() (time.Time, bool) {
	if t, ok := r.LastEdited(); ok {
		return t, true
	}
	return r.Created()
}

// Snapshot is an immutable capture of the record set at a point in time.
type Snapshot struct {
	// ID is assigned by the store the snapshot was loaded from or saved to.
	// It is not part of the file format.
	ID string
	// Path is the file the snapshot was read from, if any.
	Path string

	GeneratedAt  time.Time
	Source       string
	DatabaseID   string
	PropertyKeys []string
	// CategoryField names the property used for category display; empty
	// when no candidate field was found.
	CategoryField string
	Categories    []CategoryCount
	Records       []Record
}

// CategoryCount is one row of the category summary.
type CategoryCount struct {
	Name  string
	Count int
}
