package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// DeliveryLog records which sinks already received the digest for a
// snapshot, so a scheduled run does not deliver twice.
type DeliveryLog struct {
	Version   string                   `json:"version"`
	UpdatedAt time.Time                `json:"updated_at"`
	Entries   map[string]DeliveryEntry `json:"entries"`

	path string
}

type DeliveryEntry struct {
	Sinks       []string `json:"sinks"`
	DeliveredAt string   `json:"delivered_at"`
	Previous    string   `json:"previous,omitempty"`
}

// DeliveryLogPath returns delivery_log.json next to the config file
func (c *Config) DeliveryLogPath() string {
	dir, err := c.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "delivery_log.json")
}

// LoadDeliveryLog reads the log at path. A missing file is an empty log.
func LoadDeliveryLog(path string) (*DeliveryLog, error) {
	log := &DeliveryLog{Version: "1.0", Entries: make(map[string]DeliveryEntry), path: path}
	if path == "" {
		return log, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return log, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery log: %w", err)
	}

	if err := json.Unmarshal(data, log); err != nil {
		return nil, fmt.Errorf("failed to parse delivery log: %w", err)
	}
	if log.Entries == nil {
		log.Entries = make(map[string]DeliveryEntry)
	}
	log.path = path

	return log, nil
}

func (l *DeliveryLog) Save() error {
	if l.path == "" {
		return fmt.Errorf("cannot determine delivery log path")
	}

	l.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal delivery log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(l.path, data, 0o600)
}

// Record adds sinks to the entry for snapshotID
func (l *DeliveryLog) Record(snapshotID, previousID string, sinks []string) {
	if l.Entries == nil {
		l.Entries = make(map[string]DeliveryEntry)
	}
	entry := l.Entries[snapshotID]
	for _, s := range sinks {
		if !slices.Contains(entry.Sinks, s) {
			entry.Sinks = append(entry.Sinks, s)
		}
	}
	slices.Sort(entry.Sinks)
	entry.DeliveredAt = time.Now().Format(time.RFC3339)
	entry.Previous = previousID
	l.Entries[snapshotID] = entry
}

func (l *DeliveryLog) GetEntry(snapshotID string) (DeliveryEntry, bool) {
	entry, ok := l.Entries[snapshotID]
	return entry, ok
}

// Pending returns the sinks that have not yet received snapshotID
func (l *DeliveryLog) Pending(snapshotID string, sinks []string) []string {
	entry := l.Entries[snapshotID]
	var result []string
	for _, s := range sinks {
		if !slices.Contains(entry.Sinks, s) {
			result = append(result, s)
		}
	}
	return result
}

// Delivered reports whether every sink already received snapshotID
func (l *DeliveryLog) Delivered(snapshotID string, sinks []string) bool {
	return len(l.Pending(snapshotID, sinks)) == 0
}
