package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	generated_at TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	database_id  TEXT NOT NULL DEFAULT '',
	record_count INTEGER NOT NULL DEFAULT 0,
	payload      TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_generated_at ON snapshots(generated_at);
`

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore keeps snapshots as JSON payloads in a single SQLite table,
// ordered by insertion.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *snapshot.Snapshot) (string, error) {
	payload, err := snapshot.Encode(snap, false)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, generated_at, source, database_id, record_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		snapshot.FormatTimestamp(snap.GeneratedAt),
		snap.Source,
		snap.DatabaseID,
		len(snap.Records),
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("store: insert snapshot: %w", err)
	}
	snap.ID = id
	return id, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	return s.loadRow(id, s.db.QueryRowContext(ctx, `SELECT id, payload FROM snapshots WHERE id = ?`, id))
}

func (s *SQLiteStore) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.loadRow("latest", s.db.QueryRowContext(ctx, `SELECT id, payload FROM snapshots ORDER BY seq DESC LIMIT 1`))
}

func (s *SQLiteStore) Previous(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM snapshots WHERE id = ?`, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return s.Latest(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("store: lookup %s: %w", id, err)
	}
	return s.loadRow("before "+id, s.db.QueryRowContext(ctx,
		`SELECT id, payload FROM snapshots WHERE seq < ? ORDER BY seq DESC LIMIT 1`, seq))
}

func (s *SQLiteStore) loadRow(what string, row *sql.Row) (*snapshot.Snapshot, error) {
	var id, payload string
	if err := row.Scan(&id, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
		}
		return nil, fmt.Errorf("store: load %s: %w", what, err)
	}
	snap, err := snapshot.Decode([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("store: snapshot %s: %w", id, err)
	}
	snap.ID = id
	return snap, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, length(CAST(payload AS BLOB)), created_at FROM snapshots ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info    Info
			created string
		)
		if err := rows.Scan(&info.ID, &info.Size, &created); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
