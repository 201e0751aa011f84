package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/mcao2/prompt-digest/internal/digest"
	"github.com/mcao2/prompt-digest/internal/sink"
	"github.com/mcao2/prompt-digest/internal/store"
)

// StoreConfig selects the snapshot store
type StoreConfig struct {
	Driver string `yaml:"driver"` // "dir" or "sqlite"
	Path   string `yaml:"path"`
}

// DigestConfig holds digest rendering defaults
type DigestConfig struct {
	Limit     int    `yaml:"limit"`
	StaleDays int    `yaml:"stale_days"`
	HubLink   string `yaml:"hub_link"`
	Mode      string `yaml:"mode"`
	Locale    string `yaml:"locale"`
	Timezone  string `yaml:"timezone"`
}

// LINEConfig holds Messaging API credentials
type LINEConfig struct {
	ChannelAccessToken string `yaml:"channel_access_token"`
	To                 string `yaml:"to"`
}

// Config holds application configuration
type Config struct {
	NotionToken      string       `yaml:"notion_token"`
	NotionDatabaseID string       `yaml:"notion_database_id"`
	NotionPageSize   int          `yaml:"notion_page_size"`
	Store            StoreConfig  `yaml:"store"`
	Digest           DigestConfig `yaml:"digest"`
	LINE             LINEConfig   `yaml:"line"`
	Sinks            []string     `yaml:"sinks"`
	DigestOutput     string       `yaml:"digest_output"`
	Theme            string       `yaml:"theme"`
	LogLevel         string       `yaml:"log_level"`
	LogFormat        string       `yaml:"log_format"`

	path string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		NotionPageSize: 100,
		Store:          StoreConfig{Driver: store.DriverDir},
		Digest: DigestConfig{
			Limit:     5,
			StaleDays: 30,
			Mode:      "daily",
			Locale:    "en",
		},
		Sinks:     []string{sink.NameStdout},
		Theme:     "default",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load loads configuration from the default config file and environment
// variables. Environment variables take precedence over file values.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path means
// the default location. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}
	cfg := Default()
	cfg.path = path

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.loadFromEnv()
	cfg.normalize()

	return cfg, nil
}

func (c *Config) loadFromFile() error {
	if c.path == "" {
		return os.ErrNotExist
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if token := os.Getenv("NOTION_API_KEY"); token != "" {
		c.NotionToken = token
	}
	if id := os.Getenv("NOTION_DATABASE_ID"); id != "" {
		c.NotionDatabaseID = id
	}
	if token := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); token != "" {
		c.LINE.ChannelAccessToken = token
	}
	if to := os.Getenv("LINE_USER_ID"); to != "" {
		c.LINE.To = to
	}
	if path := os.Getenv("PROMPT_DIGEST_STORE"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("PROMPT_DIGEST_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

func (c *Config) normalize() {
	if c.NotionPageSize < 1 || c.NotionPageSize > 100 {
		c.NotionPageSize = 100
	}
	if c.Store.Driver == "" {
		c.Store.Driver = store.DriverDir
	}
	if c.Digest.Mode == "" {
		c.Digest.Mode = "daily"
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []string{sink.NameStdout}
	}
}

// Validate rejects values no command could work with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case store.DriverDir, store.DriverSQLite:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	for _, name := range c.Sinks {
		if !slices.Contains(sink.Names, name) {
			return fmt.Errorf("config: unknown sink %q", name)
		}
	}
	if _, ok := digest.LabelsFor(c.Digest.Locale); !ok {
		return fmt.Errorf("config: unknown locale %q", c.Digest.Locale)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// StorePath returns the configured store path or the driver's default
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	if c.Store.Driver == store.DriverSQLite {
		return filepath.Join("data", "prompt_snapshots.db")
	}
	return filepath.Join("data", "prompt_snapshots")
}

// Location returns the zone digest headings are printed in
func (c *Config) Location() (*time.Location, error) {
	if c.Digest.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Digest.Timezone, err)
	}
	return loc, nil
}

// Path returns the config file this configuration was loaded from
func (c *Config) Path() string { return c.path }

// Dir returns the directory holding the config file
func (c *Config) Dir() (string, error) {
	if c.path == "" {
		return "", fmt.Errorf("cannot determine config path")
	}
	return filepath.Dir(c.path), nil
}

// getConfigPath returns the path to the config file
// Priority: $PROMPT_DIGEST_CONFIG > ~/.config/prompt-digest/config.yaml
func getConfigPath() string {
	if configPath := os.Getenv("PROMPT_DIGEST_CONFIG"); configPath != "" {
		return configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "prompt-digest", "config.yaml")
}

const exampleConfig = `# Prompt Digest Configuration
# Create an integration at https://www.notion.so/my-integrations and share
# the prompt library database with it.

# Required for "snapshot": Notion integration token (or NOTION_API_KEY)
notion_token: "your_token_here"

# Required for "snapshot": database to capture (or NOTION_DATABASE_ID)
notion_database_id: ""

# Optional: rows per query page, 1-100 (default: 100)
notion_page_size: 100

# Snapshot store: "dir" keeps one JSON file per snapshot, "sqlite" a single
# database file. PROMPT_DIGEST_STORE overrides the path.
store:
  driver: "dir"
  path: "data/prompt_snapshots"

digest:
  limit: 5            # entries shown per section
  stale_days: 30      # days without edits before a prompt is worth revisiting
  mode: "daily"       # label printed in the heading
  locale: "en"        # "en" or "ja"
  # hub_link: "prompt/PROMPT_KNOWLEDGE_HUB.md"
  # timezone: "Asia/Tokyo"

# Where "digest" delivers: stdout, file, clipboard, line
sinks:
  - stdout

# Path used by the file sink
# digest_output: "data/digest.txt"

# LINE Messaging API (or LINE_CHANNEL_ACCESS_TOKEN / LINE_USER_ID)
line:
  channel_access_token: ""
  to: ""

# Optional: Color theme (default, catppuccin, dracula, nord, gruvbox)
theme: "default"

# Optional: debug, info, warn, error (or PROMPT_DIGEST_LOG_LEVEL)
log_level: "info"
log_format: "text"
`

// SaveExampleConfig writes an example config to path (the default
// location when empty). An existing file is left alone; created reports
// whether anything was written.
func SaveExampleConfig(path string) (written string, created bool, err error) {
	if path == "" {
		path = getConfigPath()
	}
	if path == "" {
		return "", false, fmt.Errorf("cannot determine config path")
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// Save persists the fields the UI changes, keeping everything else in the
// file (tokens included) as it was.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	existing := Default()
	if data, err := os.ReadFile(c.path); err == nil {
		if err := yaml.Unmarshal(data, existing); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	existing.Theme = c.Theme
	existing.Sinks = c.Sinks

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Prompt Digest Configuration\n# Note: Sensitive values (tokens) can be set via environment variables or this file\n\n")
	return os.WriteFile(c.path, append(header, data...), 0o600)
}
