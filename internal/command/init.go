package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/config"
)

// InitCommand returns the init command.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example config file",
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	path, created, err := config.SaveExampleConfig(ParseGlobalFlags(c).Config)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if !created {
		fmt.Fprintf(c.App.Writer, "Config already exists at %s\n", path)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Created config file at %s\n", path)
	fmt.Fprintln(c.App.Writer, "Set notion_token and notion_database_id, then run \"prompt-digest snapshot\".")
	return nil
}
