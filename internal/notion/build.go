package notion

import (
	"log/slog"
	"time"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// Source is the snapshot source name for records fetched from Notion.
const Source = "notion"

// RecordFromPage flattens a page into a snapshot record.
func RecordFromPage(p Page) (snapshot.Record, error) {
	attrs, title, err := FlattenProperties(p.Properties)
	if err != nil {
		return snapshot.Record{}, err
	}
	return snapshot.Record{
		PageID:         p.ID,
		Title:          title,
		URL:            p.URL,
		Archived:       p.Archived || p.InTrash,
		CreatedTime:    p.CreatedTime,
		LastEditedTime: p.LastEditedTime,
		Properties:     attrs,
	}, nil
}

// BuildSnapshot flattens pages into a snapshot generated at now. A page
// that fails to flatten is logged and left out.
func BuildSnapshot(pages []Page, source, databaseID string, now time.Time, logger *slog.Logger) *snapshot.Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	records := make([]snapshot.Record, 0, len(pages))
	for _, p := range pages {
		r, err := RecordFromPage(p)
		if err != nil {
			logger.Warn("skipping page", "page", p.ID, "err", err)
			continue
		}
		records = append(records, r)
	}
	return snapshot.New(records, source, databaseID, now.UTC())
}
