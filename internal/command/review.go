package command

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/sink"
	"github.com/mcao2/prompt-digest/internal/ui"
)

// ReviewCommand returns the review command.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:   "review",
		Usage:  "Browse the classification in a full-screen view and send the digest",
		Flags:  append(selectionFlags(), renderFlags()...),
		Action: reviewAction,
	}
}

func reviewAction(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	settings, err := settingsFrom(c, st.cfg)
	if err != nil {
		return err
	}
	current, previous, err := loadPair(c, st)
	if err != nil {
		return err
	}
	cl, err := settings.classify(current, previous)
	if err != nil {
		return err
	}

	// stdout would draw over the alternate screen.
	names := slices.DeleteFunc(slices.Clone(st.cfg.Sinks), func(n string) bool { return n == sink.NameStdout })
	sinks, err := buildSinks(names, sinkOptions(c, st.cfg))
	if err != nil {
		return err
	}

	m := ui.NewModel(ui.Options{
		Classification: cl,
		Digest:         settings.render(cl),
		Labels:         settings.Labels,
		Resolver:       settings.Resolver,
		Sinks:          sinks,
		Config:         st.cfg,
		Context:        c.Context,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(c.Context))
	_, err = p.Run()
	return err
}
