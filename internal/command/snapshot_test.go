package command

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcao2/prompt-digest/internal/snapshot"
	"github.com/mcao2/prompt-digest/internal/store"
)

func TestSnapshot_FromInputFile(t *testing.T) {
	env := newTestEnv(t, "")
	input := writeSnapshotFile(t, env.path("input.json"), currentSnapshot())
	exports := env.path("exports")

	if err := env.run("snapshot", "--input-file", input, "--format", "all", "--output-dir", exports); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	infos, err := store.NewDirStore(env.storeDir).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 stored snapshot, got %d", len(infos))
	}
	id := infos[0].ID

	for _, ext := range []string{"csv", "xlsx"} {
		path := filepath.Join(exports, id+"."+ext)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s export: %v", ext, err)
		}
	}

	got := env.out.String()
	for _, want := range []string{
		"📦 Snapshot summary",
		"Records         : 4",
		"Database ID     : db-1",
		"✅ JSON saved to store as " + id,
		"✅ CSV saved to " + filepath.Join(exports, id+".csv"),
		"✅ XLSX saved to " + filepath.Join(exports, id+".xlsx"),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestSnapshot_OutputPath(t *testing.T) {
	env := newTestEnv(t, "")
	input := writeSnapshotFile(t, env.path("input.json"), currentSnapshot())
	out := env.path("saved/custom.json")

	if err := env.run("snapshot", "-i", input, "--output", out, "--silent"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if env.out.Len() != 0 {
		t.Errorf("--silent should print nothing, got %q", env.out.String())
	}

	snap, err := snapshot.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(snap.Records) != 4 {
		t.Errorf("Records = %d, want 4", len(snap.Records))
	}

	infos, err := store.NewDirStore(env.storeDir).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("--output should bypass the store, found %d snapshots", len(infos))
	}
}

func TestSnapshot_CSVOnly(t *testing.T) {
	env := newTestEnv(t, "")
	input := writeSnapshotFile(t, env.path("input.json"), currentSnapshot())
	exports := env.path("exports")

	if err := env.run("snapshot", "-i", input, "-f", "csv", "--output-dir", exports, "-s"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	entries, err := os.ReadDir(exports)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".csv" {
		t.Errorf("expected a single csv export, got %v", entries)
	}
	if _, err := os.Stat(env.storeDir); !os.IsNotExist(err) {
		t.Errorf("csv format should not touch the store")
	}
}

func TestSnapshot_UnknownFormat(t *testing.T) {
	env := newTestEnv(t, "")
	input := writeSnapshotFile(t, env.path("input.json"), currentSnapshot())

	err := env.run("snapshot", "-i", input, "--format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestSnapshot_MissingCredentials(t *testing.T) {
	env := newTestEnv(t, "")

	err := env.run("snapshot")
	if err == nil || !strings.Contains(err.Error(), "NOTION_API_KEY") {
		t.Errorf("expected credentials error, got %v", err)
	}
}

func TestSnapshot_FromNotion(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":"p1","url":"https://notion.so/p1","created_time":"2025-01-01T00:00:00.000Z","last_edited_time":"2025-02-01T00:00:00.000Z",
			 "properties":{"Name":{"type":"title","title":[{"plain_text":"Hello"}]},"Tags":{"type":"multi_select","multi_select":[{"name":"ops"}]}}},
			{"id":"p2","url":"https://notion.so/p2","in_trash":true,
			 "properties":{"Name":{"type":"title","title":[{"plain_text":"Gone"}]}}}
		],"has_more":false,"next_cursor":null}`))
	}))
	defer server.Close()

	env := newTestEnv(t, "notion_token: secret\nnotion_database_id: db-42\nnotion_page_size: 50\n")

	if err := env.run("snapshot", "--notion-base-url", server.URL, "--silent"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if gotPath != "/databases/db-42/query" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if size, _ := gotBody["page_size"].(float64); size != 50 {
		t.Errorf("page_size = %v, want 50", gotBody["page_size"])
	}

	snap, err := store.NewDirStore(env.storeDir).Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap.DatabaseID != "db-42" || snap.Source != "notion" {
		t.Errorf("DatabaseID = %q, Source = %q", snap.DatabaseID, snap.Source)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(snap.Records))
	}
	if snap.Records[0].Title != "Hello" {
		t.Errorf("Title = %q, want Hello", snap.Records[0].Title)
	}
	if !snap.Records[1].Archived {
		t.Error("in_trash page should be archived")
	}
}

func TestSnapshot_DatabaseIDFlag(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"results":[],"has_more":false}`))
	}))
	defer server.Close()

	env := newTestEnv(t, "notion_token: secret\nnotion_database_id: db-42\n")

	if err := env.run("snapshot", "--notion-base-url", server.URL, "-d", "db-override", "-s"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if gotPath != "/databases/db-override/query" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSnapshots_Listing(t *testing.T) {
	env := newTestEnv(t, "")

	if err := env.run("snapshots"); err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if want := "No snapshots in " + env.storeDir; !strings.Contains(env.out.String(), want) {
		t.Errorf("output %q missing %q", env.out.String(), want)
	}

	env.seedStore(t, true)
	if err := env.run("ls"); err != nil {
		t.Fatalf("ls: %v", err)
	}
	got := env.out.String()
	for _, want := range []string{"SNAPSHOT", "SAVED", "SIZE", "prompt_snapshot_", "2 snapshots in " + env.storeDir} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
