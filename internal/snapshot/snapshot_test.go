package snapshot

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "zulu suffix",
			input:  "2025-01-02T03:04:05Z",
			want:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "explicit offset",
			input:  "2025-01-02T12:04:05+09:00",
			want:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fractional seconds",
			input:  "2025-01-02T03:04:05.123000Z",
			want:   time.Date(2025, 1, 2, 3, 4, 5, 123000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "no zone defaults to utc",
			input:  "2025-01-02T03:04:05",
			want:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			input:  "2025-01-02",
			want:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			input:  "  2025-01-02T03:04:05Z \n",
			want:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			wantOK: true,
		},
		{name: "empty", input: "", wantOK: false},
		{name: "blank", input: "   ", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
		{name: "impossible date", input: "2025-13-45T00:00:00Z", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if !got.IsZero() {
					t.Errorf("expected zero time on failure, got %v", got)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverKey(t *testing.T) {
	rs := DefaultResolver()

	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name: "custom id wins",
			record: Record{
				PageID:     "page-1",
				URL:        "https://notion.so/page-1",
				Properties: NewAttributes(Pair{"ID", String("  P-001 ")}),
			},
			want: "P-001",
		},
		{
			name: "second id spelling",
			record: Record{
				PageID:     "page-1",
				Properties: NewAttributes(Pair{"Id", String("P-002")}),
			},
			want: "P-002",
		},
		{
			name: "blank custom id falls back to page id",
			record: Record{
				PageID:     "page-1",
				Properties: NewAttributes(Pair{"ID", String("   ")}),
			},
			want: "page-1",
		},
		{
			name:   "url when nothing else",
			record: Record{URL: "https://notion.so/x"},
			want:   "https://notion.so/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.Key(tt.record); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverLabel(t *testing.T) {
	rs := DefaultResolver()

	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name: "id prefixed",
			record: Record{
				PageID:     "page-1",
				Title:      "Morning hook",
				Properties: NewAttributes(Pair{"ID", String("P-001")}),
			},
			want: "P-001: Morning hook",
		},
		{
			name: "id already in title",
			record: Record{
				PageID:     "page-1",
				Title:      "P-001 Morning hook",
				Properties: NewAttributes(Pair{"ID", String("P-001")}),
			},
			want: "P-001 Morning hook",
		},
		{
			name:   "no title uses id",
			record: Record{PageID: "page-1"},
			want:   "page-1",
		},
		{
			name:   "page id prefix without custom id",
			record: Record{PageID: "page-1", Title: "Hook"},
			want:   "page-1: Hook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.Label(tt.record); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverCategory(t *testing.T) {
	rs := DefaultResolver()

	tests := []struct {
		name      string
		props     Attributes
		preferred string
		want      string
		wantOK    bool
	}{
		{
			name:      "preferred list takes first",
			props:     NewAttributes(Pair{"Type", List("writing", "sales")}),
			preferred: "Type",
			want:      "writing",
			wantOK:    true,
		},
		{
			name:      "preferred text",
			props:     NewAttributes(Pair{"Type", String("writing")}),
			preferred: "Type",
			want:      "writing",
			wantOK:    true,
		},
		{
			name:      "preferred empty list means none",
			props:     NewAttributes(Pair{"Type", List()}, Pair{"Category", String("x")}),
			preferred: "Type",
			wantOK:    false,
		},
		{
			name:      "preferred missing probes fallbacks",
			props:     NewAttributes(Pair{"Category", String("sales")}),
			preferred: "Type",
			want:      "sales",
			wantOK:    true,
		},
		{
			name:   "fallback order",
			props:  NewAttributes(Pair{"Category", String("en")}, Pair{"カテゴリ", List("日本語")}),
			want:   "日本語",
			wantOK: true,
		},
		{
			name:   "empty fallback skipped",
			props:  NewAttributes(Pair{"カテゴリ", String("")}, Pair{"Category", String("en")}),
			want:   "en",
			wantOK: true,
		},
		{
			name:   "nothing",
			props:  NewAttributes(Pair{"Other", String("x")}),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rs.Category(Record{Properties: tt.props}, tt.preferred)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Category() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIndexLastWriteWins(t *testing.T) {
	rs := DefaultResolver()
	records := []Record{
		{PageID: "a", Title: "first", Properties: NewAttributes(Pair{"ID", String("dup")})},
		{PageID: "b", Title: "second", Properties: NewAttributes(Pair{"ID", String("dup")})},
		{PageID: "c", Title: "third"},
	}

	index := rs.Index(records)
	if len(index) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(index))
	}
	if index["dup"].Title != "second" {
		t.Errorf("expected later record to win, got %q", index["dup"].Title)
	}
}

func TestLastTouch(t *testing.T) {
	r := Record{CreatedTime: "2025-01-01T00:00:00Z", LastEditedTime: "not a date"}
	got, ok := r.LastTouch()
	if !ok || !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected fallback to created time, got %v %v", got, ok)
	}

	if _, ok := (Record{}).LastTouch(); ok {
		t.Error("expected no last touch without timestamps")
	}
}

const sampleDoc = `{
  "generated_at": "2025-02-01T00:00:00+00:00",
  "source": "notion",
  "database_id": "db-1",
  "record_count": 2,
  "property_keys": ["ID", "カテゴリ"],
  "category_summary": {"field": "カテゴリ", "counts": [["writing", 1]]},
  "records": [
    {
      "page_id": "p1",
      "title": "Hook",
      "url": "https://notion.so/p1",
      "archived": false,
      "created_time": "2025-01-01T00:00:00.000Z",
      "last_edited_time": "2025-01-10T00:00:00.000Z",
      "properties": {"ID": "P-001", "カテゴリ": ["writing"], "Score": 4.5, "Due": {"start": "2025-03-01", "end": null, "time_zone": null}, "Done": false}
    },
    {
      "id": "p2",
      "title": null,
      "url": "https://notion.so/p2",
      "created_time": null,
      "last_edited_time": null,
      "properties": {}
    }
  ]
}`

func TestDecode(t *testing.T) {
	snap, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !snap.GeneratedAt.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected generated_at %v", snap.GeneratedAt)
	}
	if snap.CategoryField != "カテゴリ" {
		t.Errorf("expected category field from summary, got %q", snap.CategoryField)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap.Records))
	}

	first := snap.Records[0]
	if keys := first.Properties.Keys(); strings.Join(keys, ",") != "ID,カテゴリ,Score,Due,Done" {
		t.Errorf("property order not preserved: %v", keys)
	}
	if v, _ := first.Properties.Get("Due"); v.Kind() != KindNested {
		t.Errorf("expected nested date, got %v", v.Kind())
	}
	if v, _ := first.Properties.Get("Score"); v.Stringify() != "4.5" {
		t.Errorf("expected number preserved, got %q", v.Stringify())
	}

	second := snap.Records[1]
	if second.PageID != "p2" {
		t.Errorf("expected id fallback, got %q", second.PageID)
	}
	if second.Title != "" || second.CreatedTime != "" {
		t.Errorf("expected null fields to decode empty: %+v", second)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `[1, 2]`},
		{"missing records", `{"generated_at": "2025-01-01T00:00:00Z"}`},
		{"null records", `{"records": null}`},
		{"records not a list", `{"records": {"a": 1}}`},
		{"record not an object", `{"records": ["x"]}`},
		{"properties not an object", `{"records": [{"page_id": "a", "properties": [1]}]}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecodeDefaults(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	snap, err := Decode([]byte(`{"generated_at": "bogus", "records": [{"page_id": "a", "properties": {"category": "x"}}]}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !snap.GeneratedAt.Equal(fixed) {
		t.Errorf("expected capture time default, got %v", snap.GeneratedAt)
	}
	if snap.CategoryField != "category" {
		t.Errorf("expected inferred category field, got %q", snap.CategoryField)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	snap, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	first, err := Encode(snap, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	again, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode of encoded snapshot failed: %v", err)
	}
	second, err := Encode(again, false)
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("round trip changed the document:\n%s\n%s", first, second)
	}
	if !strings.Contains(string(first), `"カテゴリ":["writing"]`) {
		t.Errorf("expected unescaped property name in output: %s", first)
	}
	if again.Records[0].LastEditedTime != "2025-01-10T00:00:00.000Z" {
		t.Errorf("raw timestamp altered: %q", again.Records[0].LastEditedTime)
	}
}

func TestNewBuildsSummary(t *testing.T) {
	records := []Record{
		{PageID: "a", Properties: NewAttributes(Pair{"Title", String("x")}, Pair{"カテゴリ", List("writing", "sales")})},
		{PageID: "b", Properties: NewAttributes(Pair{"カテゴリ", String("writing")})},
		{PageID: "c", Properties: NewAttributes(Pair{"Extra", Bool(true)})},
	}

	snap := New(records, "notion", "db", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if strings.Join(snap.PropertyKeys, ",") != "Extra,Title,カテゴリ" {
		t.Errorf("unexpected property keys %v", snap.PropertyKeys)
	}
	if snap.CategoryField != "カテゴリ" {
		t.Errorf("unexpected category field %q", snap.CategoryField)
	}
	want := []CategoryCount{{"writing", 2}, {"sales", 1}}
	if len(snap.Categories) != len(want) {
		t.Fatalf("unexpected categories %v", snap.Categories)
	}
	for i := range want {
		if snap.Categories[i] != want[i] {
			t.Errorf("category %d = %v, want %v", i, snap.Categories[i], want[i])
		}
	}
}

func TestValueStringify(t *testing.T) {
	nested, err := NestedOf(map[string]any{"start": "2025-01-01"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"text", String("hi"), "hi"},
		{"bool", Bool(true), "true"},
		{"number", Number("3"), "3"},
		{"text list", List("a", "", "b"), "a; b"},
		{"nested", nested, `{"start":"2025-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Stringify(); got != tt.want {
				t.Errorf("Stringify() = %q, want %q", got, tt.want)
			}
		})
	}
}
