package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

func sampleEntries() []Entry {
	edited := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	return []Entry{
		{
			Key:        "P-001",
			Label:      "P-001: Summarise a meeting",
			Category:   "writing",
			URL:        "https://notion.so/p1",
			LastEdited: edited,
			Days:       9,
			Properties: snapshot.NewAttributes(
				snapshot.Pair{Name: "ID", Value: snapshot.String("P-001")},
				snapshot.Pair{Name: "Tags", Value: snapshot.List("work", "notes")},
				snapshot.Pair{Name: "Draft", Value: snapshot.Bool(false)},
			),
		},
		{Key: "P-002", Label: "P-002: プロンプト改善", Days: -1},
	}
}

func TestListView_SetEntries(t *testing.T) {
	lv := NewListView(100, 30)
	lv.SetEntries(sampleEntries(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	if lv.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", lv.Len())
	}
	rows := lv.table.Rows()
	if rows[0][1] != "writing" || rows[0][3] != "9" {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if rows[1][2] != "—" || rows[1][3] != "—" {
		t.Errorf("unknown age should render as a dash, got %v", rows[1])
	}
}

func TestListView_CursorBoundary(t *testing.T) {
	lv := NewListView(100, 30)
	lv.SetEntries(sampleEntries(), time.Now())

	lv.MoveCursor(-1)
	if lv.Cursor() != 0 {
		t.Errorf("cursor moved above the first row: %d", lv.Cursor())
	}
	lv.MoveCursor(1)
	lv.MoveCursor(1)
	if lv.Cursor() != 1 {
		t.Errorf("cursor moved past the last row: %d", lv.Cursor())
	}

	lv.SetEntries(sampleEntries()[:1], time.Now())
	if lv.Cursor() != 0 {
		t.Errorf("SetEntries should reset the cursor, got %d", lv.Cursor())
	}
}

func TestListView_GetEntryOutOfBounds(t *testing.T) {
	lv := NewListView(100, 30)
	lv.SetEntries(sampleEntries(), time.Now())

	if lv.GetEntry(-1) != nil || lv.GetEntry(2) != nil {
		t.Error("expected nil for out of range indices")
	}
}

func TestListView_DetailView(t *testing.T) {
	lv := NewListView(100, 30)
	lv.SetEntries(sampleEntries(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	detail := lv.DetailView(100, DefaultStyles())
	lines := strings.Split(detail, "\n")
	if len(lines) != detailPaneHeight {
		t.Fatalf("expected %d lines, got %d", detailPaneHeight, len(lines))
	}
	for _, want := range []string{"Summarise a meeting", "https://notion.so/p1", "cat:writing", "edited 1 week ago", "Tags=work; notes"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail pane missing %q:\n%s", want, detail)
		}
	}
	if strings.Contains(detail, "Draft=") {
		t.Error("false flags should be left out of the property line")
	}
}

func TestListView_View(t *testing.T) {
	lv := NewListView(100, 30)
	lv.SetEntries(sampleEntries(), time.Now())

	view := lv.View()
	for _, want := range []string{"Prompt", "Category", "Last edited", "Days", "プロンプト改善"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestListView_SetWidthHeight(t *testing.T) {
	lv := NewListView(80, 24)
	lv.SetWidthHeight(140, 50)

	if lv.visibleRows != visibleRowsFor(50) {
		t.Errorf("visible rows not updated: %d", lv.visibleRows)
	}
	if lv.columns[0].Width <= 20 {
		t.Errorf("label column should grow with the width, got %d", lv.columns[0].Width)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		max   int
	}{
		{"Hello World", 5},
		{"Hello", 10},
		{"こんにちは", 5},
	}

	for _, tt := range tests {
		got := Truncate(tt.input, tt.max)
		if w := runewidth.StringWidth(got); w > tt.max {
			t.Errorf("Truncate(%q, %d) = %q has width %d", tt.input, tt.max, got, w)
		}
		if runewidth.StringWidth(tt.input) <= tt.max && got != tt.input {
			t.Errorf("Truncate(%q, %d) changed a short string to %q", tt.input, tt.max, got)
		}
	}
}
