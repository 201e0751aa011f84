package digest

import (
	"errors"
	"time"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// ErrNoSnapshot is returned when classification is asked to run without a
// current snapshot.
var ErrNoSnapshot = errors.New("digest: no current snapshot")

const day = 24 * time.Hour

// StaleRecord pairs a record with the whole days since its last touch.
type StaleRecord struct {
	snapshot.Record
	Days int
}

// Classification is the result of comparing two snapshots. The three lists
// keep the current snapshot's record order.
type Classification struct {
	Current  *snapshot.Snapshot
	Previous *snapshot.Snapshot

	New     []snapshot.Record
	Updated []snapshot.Record
	Stale   []StaleRecord
}

// Counts returns the number of records in each section.
func (c *Classification) Counts() Counts {
	return Counts{New: len(c.New), Updated: len(c.Updated), Stale: len(c.Stale)}
}

// Counts are the per-section totals.
type Counts struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Stale   int `json:"stale"`
}

// Classify sorts the non-archived records of current into New, Updated and
// Stale. previous may be nil, in which case New and Updated stay empty and
// only staleness is judged.
//
// New and Updated are exclusive. Updated requires both last-edited times to
// be known and to differ as instants; a missing timestamp never flags a
// change. Stale is independent of the other two: a record is stale when at
// least staleDays have passed between its last touch and current's
// generation time.
func Classify(current, previous *snapshot.Snapshot, staleDays int, rs snapshot.Resolver) (*Classification, error) {
	if current == nil {
		return nil, ErrNoSnapshot
	}

	c := &Classification{Current: current, Previous: previous}
	var prevIndex map[string]snapshot.Record
	if previous != nil {
		prevIndex = rs.Index(previous.Records)
	}
	threshold := time.Duration(staleDays) * day

	for _, r := range current.Records {
		if r.Archived {
			continue
		}

		if previous != nil {
			prev, seen := prevIndex[rs.Key(r)]
			if !seen {
				c.New = append(c.New, r)
			} else if changed(r, prev) {
				c.Updated = append(c.Updated, r)
			}
		}

		touch, ok := r.LastTouch()
		if !ok {
			continue
		}
		if elapsed := current.GeneratedAt.Sub(touch); elapsed >= threshold {
			c.Stale = append(c.Stale, StaleRecord{Record: r, Days: wholeDays(elapsed)})
		}
	}
	return c, nil
}

func changed(cur, prev snapshot.Record) bool {
	a, okA := cur.LastEdited()
	b, okB := prev.LastEdited()
	return okA && okB && !a.Equal(b)
}

// wholeDays floors d to days, rounding toward negative infinity.
func wholeDays(d time.Duration) int {
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}
