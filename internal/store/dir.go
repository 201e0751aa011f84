package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

const filePrefix = "prompt_snapshot_"

// DirStore keeps one JSON file per snapshot in a directory. Files are
// ordered by modification time, then name. The id of a snapshot is its file
// name without the .json extension.
type DirStore struct {
	dir    string
	pretty bool
}

// NewDirStore returns a store over dir. The directory is created on the
// first Save.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir, pretty: true}
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes snap under a name derived from its generation time. Existing
// files are never overwritten; a numeric suffix is added instead.
func (s *DirStore) Save(ctx context.Context, snap *snapshot.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := snapshot.Encode(snap, s.pretty)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("store: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("store: close temp file: %w", err)
	}

	base := filePrefix + snap.GeneratedAt.Local().Format("20060102-150405")
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(s.path(id)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		id = base + "_" + strconv.Itoa(n)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return "", fmt.Errorf("store: rename snapshot: %w", err)
	}

	snap.ID = id
	snap.Path = s.path(id)
	return id, nil
}

func (s *DirStore) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(id)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap.ID = id
	return snap, nil
}

func (s *DirStore) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}
	return s.Load(ctx, infos[len(infos)-1].ID)
}

func (s *DirStore) Previous(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	info, ok := previousIn(infos, id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Load(ctx, info.ID)
}

// List returns the JSON files of the directory. A missing directory is an
// empty store.
func (s *DirStore) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:        strings.TrimSuffix(name, ".json"),
			Path:      filepath.Join(s.dir, name),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

func (s *DirStore) Close() error { return nil }
