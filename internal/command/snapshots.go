package command

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"
)

// SnapshotsCommand returns the snapshots command.
func SnapshotsCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshots",
		Aliases: []string{"ls"},
		Usage:   "List stored snapshots, oldest first",
		Action:  snapshotsAction,
	}
}

func snapshotsAction(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	s, err := st.openStore(c)
	if err != nil {
		return err
	}
	infos, err := s.List(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(infos) == 0 {
		fmt.Fprintf(w, "No snapshots in %s\n", st.cfg.StorePath())
		return nil
	}

	idWidth := runewidth.StringWidth("SNAPSHOT")
	for _, info := range infos {
		idWidth = max(idWidth, runewidth.StringWidth(info.ID))
	}

	fmt.Fprintf(w, "%s  %-16s  %s\n", runewidth.FillRight("SNAPSHOT", idWidth), "SAVED", "SIZE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s  %-16s  %s\n",
			runewidth.FillRight(info.ID, idWidth),
			humanize.Time(info.CreatedAt),
			humanize.Bytes(uint64(info.Size)),
		)
	}
	fmt.Fprintf(w, "\n%s in %s\n", plural(len(infos), "snapshot"), st.cfg.StorePath())
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
