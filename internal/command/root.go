// Package command wires the prompt-digest CLI.
//
// Every command shares the state built in the app's Before hook: the loaded
// configuration, the process logger and a lazily opened snapshot store.
package command

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/config"
	"github.com/mcao2/prompt-digest/internal/logging"
	"github.com/mcao2/prompt-digest/internal/store"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const stateKey = "state"

// state is shared by all commands of one run.
type state struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "prompt-digest",
		Usage:   "Snapshot a Notion prompt library and deliver a change digest",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SnapshotCommand(),
			DigestCommand(),
			ReviewCommand(),
			SnapshotsCommand(),
			InitCommand(),
		},
		Metadata: map[string]any{},
		Before:   setup,
		After:    teardown,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default: ~/.config/prompt-digest/config.yaml)",
			EnvVars: []string{"PROMPT_DIGEST_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Snapshot store path (directory or SQLite file)",
		},
		&cli.StringFlag{
			Name:  "store-driver",
			Usage: "Snapshot store driver: dir, sqlite",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config      string
	LogLevel    string
	Store       string
	StoreDriver string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:      c.String("config"),
		LogLevel:    c.String("log-level"),
		Store:       c.String("store"),
		StoreDriver: c.String("store-driver"),
	}
}

func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	cfg, err := config.LoadFrom(flags.Config)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.StoreDriver != "" {
		cfg.Store.Driver = flags.StoreDriver
	}
	if flags.Store != "" {
		cfg.Store.Path = flags.Store
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: c.App.ErrWriter,
	})
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[stateKey] = &state{cfg: cfg, logger: logger}
	return nil
}

func teardown(c *cli.Context) error {
	st, ok := c.App.Metadata[stateKey].(*state)
	if !ok || st.store == nil {
		return nil
	}
	err := st.store.Close()
	st.store = nil
	return err
}

// getState retrieves the shared state from context.
func getState(c *cli.Context) (*state, error) {
	if st, ok := c.App.Metadata[stateKey].(*state); ok {
		return st, nil
	}
	return nil, fmt.Errorf("command state not initialised")
}

// openStore opens the configured store on first use.
func (st *state) openStore(c *cli.Context) (store.Store, error) {
	if st.store != nil {
		return st.store, nil
	}
	s, err := store.Open(c.Context, st.cfg.Store.Driver, st.cfg.StorePath())
	if err != nil {
		return nil, err
	}
	st.logger.Debug("opened snapshot store", "driver", st.cfg.Store.Driver, "path", st.cfg.StorePath())
	st.store = s
	return s, nil
}
