// Package store persists snapshots and answers "which snapshot came
// before this one".
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// ErrNotFound is returned when a snapshot id is unknown or the store is
// empty.
var ErrNotFound = errors.New("store: snapshot not found")

// Drivers understood by Open.
const (
	DriverDir    = "dir"
	DriverSQLite = "sqlite"
)

// Store keeps snapshots in save order.
type Store interface {
	// Save persists snap and returns its id. snap.ID is set as well.
	Save(ctx context.Context, snap *snapshot.Snapshot) (string, error)
	Load(ctx context.Context, id string) (*snapshot.Snapshot, error)
	// Latest returns the most recently saved snapshot.
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
	// Previous returns the snapshot saved immediately before id. When id is
	// not in the store the latest snapshot is returned.
	Previous(ctx context.Context, id string) (*snapshot.Snapshot, error)
	// List returns every snapshot, oldest first.
	List(ctx context.Context) ([]Info, error)
	Close() error
}

// Info describes a stored snapshot without loading it.
type Info struct {
	ID        string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Open returns the store for driver rooted at path.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverDir, "":
		return NewDirStore(path), nil
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

// previousIn picks the entry before id in an ordered listing. ok is false
// when id is the first entry; an unknown id yields the last entry.
func previousIn(infos []Info, id string) (Info, bool) {
	for i, info := range infos {
		if info.ID == id {
			if i == 0 {
				return Info{}, false
			}
			return infos[i-1], true
		}
	}
	if len(infos) == 0 {
		return Info{}, false
	}
	return infos[len(infos)-1], true
}
