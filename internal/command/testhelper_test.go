package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// testEnv is an isolated config and store for one test.
type testEnv struct {
	dir        string
	configPath string
	storeDir   string
	out        *bytes.Buffer
	errOut     *bytes.Buffer
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	for _, key := range []string{"NOTION_API_KEY", "NOTION_DATABASE_ID", "LINE_CHANNEL_ACCESS_TOKEN", "LINE_USER_ID", "PROMPT_DIGEST_STORE", "PROMPT_DIGEST_LOG_LEVEL", "NOTION_BASE_URL", "LINE_PUSH_URL"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		storeDir:   filepath.Join(dir, "store"),
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
	}
	t.Setenv("PROMPT_DIGEST_CONFIG", env.configPath)

	cfg := "store:\n  driver: dir\n  path: " + env.storeDir + "\n" +
		"sinks:\n  - stdout\n" +
		"digest:\n  timezone: UTC\n" +
		"log_level: error\n" + extraConfig
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *testEnv) app() *cli.App {
	app := App()
	app.Writer = e.out
	app.ErrWriter = e.errOut
	return app
}

// run executes the CLI with args after the program name.
func (e *testEnv) run(args ...string) error {
	e.out.Reset()
	e.errOut.Reset()
	return e.app().Run(append([]string{"prompt-digest"}, args...))
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func promptRecord(id, title, category, edited string) snapshot.Record {
	return snapshot.Record{
		PageID:         "page-" + id,
		Title:          title,
		URL:            "https://www.notion.so/" + id,
		CreatedTime:    "2024-12-01T00:00:00Z",
		LastEditedTime: edited,
		Properties: snapshot.NewAttributes(
			snapshot.Pair{Name: "ID", Value: snapshot.String(id)},
			snapshot.Pair{Name: "カテゴリ", Value: snapshot.List(category)},
		),
	}
}

var (
	previousAt = time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)
	currentAt  = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
)

func previousSnapshot() *snapshot.Snapshot {
	return snapshot.New([]snapshot.Record{
		promptRecord("P-001", "First prompt", "writing", "2025-02-01T00:00:00Z"),
		promptRecord("P-004", "Old prompt", "writing", "2025-01-01T00:00:00Z"),
	}, "notion", "db-1", previousAt)
}

func currentSnapshot() *snapshot.Snapshot {
	archived := promptRecord("P-003", "Archived prompt", "ops", "2025-02-27T00:00:00Z")
	archived.Archived = true
	return snapshot.New([]snapshot.Record{
		promptRecord("P-001", "First prompt", "writing", "2025-02-20T00:00:00Z"),
		promptRecord("P-002", "Second prompt", "ops", "2025-02-28T00:00:00Z"),
		archived,
		promptRecord("P-004", "Old prompt", "writing", "2025-01-01T00:00:00Z"),
	}, "notion", "db-1", currentAt)
}

func writeSnapshotFile(t *testing.T, path string, snap *snapshot.Snapshot) string {
	t.Helper()
	if err := snapshot.WriteFile(path, snap, true); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

const expectedDigest = `■ New (1)
- P-002: Second prompt [ops]

■ Updated (1)
- P-001: First prompt [writing]

■ Worth revisiting (1)
- P-004: Old prompt [writing] 59 days without update

→ Details: prompt/PROMPT_KNOWLEDGE_HUB.md
`
