package digest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// Summary is the machine-readable companion of a digest.
type Summary struct {
	GeneratedAt      string  `json:"generated_at"`
	Mode             string  `json:"mode"`
	CurrentSnapshot  string  `json:"current_snapshot"`
	PreviousSnapshot *string `json:"previous_snapshot"`
	Counts           Counts  `json:"counts"`
}

// NewSummary describes c. Snapshots are referenced by path when they were
// read from a file, else by store id.
func NewSummary(c *Classification, mode string) Summary {
	s := Summary{Mode: mode, Counts: c.Counts()}
	if c.Current != nil {
		s.GeneratedAt = snapshot.FormatTimestamp(c.Current.GeneratedAt)
		s.CurrentSnapshot = reference(c.Current)
	}
	if c.Previous != nil {
		ref := reference(c.Previous)
		s.PreviousSnapshot = &ref
	}
	return s
}

func reference(s *snapshot.Snapshot) string {
	if s.Path != "" {
		return s.Path
	}
	return s.ID
}

// WriteFile saves the summary as indented JSON, creating parent dirs.
func (s Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("digest: encode summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("digest: create dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("digest: write summary: %w", err)
	}
	return nil
}
