package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/config"
	"github.com/mcao2/prompt-digest/internal/digest"
	"github.com/mcao2/prompt-digest/internal/sink"
	"github.com/mcao2/prompt-digest/internal/snapshot"
	"github.com/mcao2/prompt-digest/internal/store"
	"github.com/mcao2/prompt-digest/internal/ui"
)

// Modes accepted by --mode; the mode only appears in the heading.
var Modes = []string{"daily", "weekly", "custom"}

// DigestCommand returns the digest command.
func DigestCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Compare two snapshots and deliver the digest",
		Flags: append(selectionFlags(), append(renderFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the digest text to this file",
			},
			&cli.StringFlag{
				Name:  "json-output",
				Usage: "Write the summary counts as JSON to this file",
			},
			&cli.StringSliceFlag{
				Name:  "sink",
				Usage: "Deliver to this sink (stdout, file, clipboard, line); repeatable",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the digest to stdout",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"I"},
				Usage:   "Choose sinks and confirm before sending",
			},
			&cli.BoolFlag{
				Name:  "skip-delivered",
				Usage: "Skip sinks that already received the current snapshot",
			},
			&cli.StringFlag{
				Name:    "line-endpoint",
				Usage:   "LINE push endpoint",
				EnvVars: []string{"LINE_PUSH_URL"},
				Hidden:  true,
			},
		)...),
		Action: digestAction,
	}
}

// selectionFlags pick the snapshots to compare.
func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "current",
			Usage: "Current snapshot: file path or store id (default: latest)",
		},
		&cli.StringFlag{
			Name:  "previous",
			Usage: "Previous snapshot: file path or store id (default: the one before current)",
		},
	}
}

// renderFlags override the digest section of the config.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Mode shown in the heading: daily, weekly, custom",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Entries shown per section",
		},
		&cli.IntFlag{
			Name:  "stale-days",
			Usage: "Days without edits before a prompt is worth revisiting",
		},
		&cli.StringFlag{
			Name:  "hub-link",
			Usage: "Reference link printed at the end",
		},
		&cli.StringFlag{
			Name:  "locale",
			Usage: "Digest wording: en, ja",
		},
		&cli.BoolFlag{
			Name:  "no-heading",
			Usage: "Omit the [Prompt Digest / time / mode] line",
		},
	}
}

// digestSettings are the resolved rendering parameters of one run.
type digestSettings struct {
	Mode      string
	Limit     int
	StaleDays int
	HubLink   string
	Heading   bool
	Labels    digest.Labels
	Location  *time.Location
	Resolver  snapshot.Resolver
}

func settingsFrom(c *cli.Context, cfg *config.Config) (digestSettings, error) {
	d := cfg.Digest
	if c.IsSet("mode") {
		d.Mode = c.String("mode")
	}
	if c.IsSet("limit") {
		d.Limit = c.Int("limit")
	}
	if c.IsSet("stale-days") {
		d.StaleDays = c.Int("stale-days")
	}
	if c.IsSet("hub-link") {
		d.HubLink = c.String("hub-link")
	}
	if c.IsSet("locale") {
		d.Locale = c.String("locale")
	}

	if !slices.Contains(Modes, d.Mode) {
		return digestSettings{}, fmt.Errorf("unknown mode %q (want %s)", d.Mode, strings.Join(Modes, ", "))
	}
	labels, ok := digest.LabelsFor(d.Locale)
	if !ok {
		return digestSettings{}, fmt.Errorf("unknown locale %q", d.Locale)
	}
	loc, err := cfg.Location()
	if err != nil {
		return digestSettings{}, err
	}

	return digestSettings{
		Mode:      d.Mode,
		Limit:     d.Limit,
		StaleDays: d.StaleDays,
		HubLink:   d.HubLink,
		Heading:   !c.Bool("no-heading"),
		Labels:    labels,
		Location:  loc,
		Resolver:  snapshot.DefaultResolver(),
	}, nil
}

func (d digestSettings) classify(current, previous *snapshot.Snapshot) (*digest.Classification, error) {
	return digest.Classify(current, previous, d.StaleDays, d.Resolver)
}

func (d digestSettings) render(cl *digest.Classification) string {
	opts := digest.RenderOptions{
		Limit:    d.Limit,
		HubLink:  d.HubLink,
		Labels:   d.Labels,
		Resolver: d.Resolver,
	}
	if d.Heading && cl.Current != nil {
		opts.Heading = digest.Heading(cl.Current.GeneratedAt, d.Mode, d.Location)
	}
	return digest.Render(cl, opts)
}

// loadPair resolves --current and --previous. A missing previous snapshot
// is not an error; the digest then reports staleness only.
func loadPair(c *cli.Context, st *state) (current, previous *snapshot.Snapshot, err error) {
	ctx := c.Context

	if ref := c.String("current"); ref != "" {
		current, err = resolveSnapshot(c, st, ref)
	} else {
		var s store.Store
		if s, err = st.openStore(c); err == nil {
			current, err = s.Latest(ctx)
			if errors.Is(err, store.ErrNotFound) {
				err = fmt.Errorf("no snapshots found in %s; run \"prompt-digest snapshot\" first", st.cfg.StorePath())
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	if ref := c.String("previous"); ref != "" {
		previous, err = resolveSnapshot(c, st, ref)
		if err != nil {
			return nil, nil, err
		}
		return current, previous, nil
	}

	s, err := st.openStore(c)
	if err != nil {
		return nil, nil, err
	}
	previous, err = s.Previous(ctx, current.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		st.logger.Info("no previous snapshot; reporting staleness only", "current", current.ID)
		return current, nil, nil
	case err != nil:
		return nil, nil, err
	}
	if sameSnapshot(current, previous) {
		return current, nil, nil
	}
	return current, previous, nil
}

// resolveSnapshot reads ref as a file when one exists at that path and as a
// store id otherwise. A file's id is its name without the extension.
func resolveSnapshot(c *cli.Context, st *state, ref string) (*snapshot.Snapshot, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		snap, err := snapshot.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		snap.ID = strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
		return snap, nil
	}
	s, err := st.openStore(c)
	if err != nil {
		return nil, err
	}
	return s.Load(c.Context, ref)
}

func sameSnapshot(a, b *snapshot.Snapshot) bool {
	if a.Path != "" && b.Path != "" {
		pa, errA := filepath.Abs(a.Path)
		pb, errB := filepath.Abs(b.Path)
		return errA == nil && errB == nil && pa == pb
	}
	return a.ID != "" && a.ID == b.ID
}

// sinkOptions builds the options New needs from config.
func sinkOptions(c *cli.Context, cfg *config.Config) sink.Options {
	opts := sink.Options{
		Stdout:    c.App.Writer,
		FilePath:  cfg.DigestOutput,
		LINEToken: cfg.LINE.ChannelAccessToken,
		LINETo:    cfg.LINE.To,
	}
	if endpoint := c.String("line-endpoint"); endpoint != "" {
		opts.LINEOpts = append(opts.LINEOpts, sink.WithLINEEndpoint(endpoint))
	}
	return opts
}

func buildSinks(names []string, opts sink.Options) ([]sink.Sink, error) {
	sinks := make([]sink.Sink, 0, len(names))
	for _, name := range names {
		s, err := sink.New(name, opts)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func digestAction(c *cli.Context) error {
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
	text := settings.render(cl)
	counts := cl.Counts()
	st.logger.Info("digest built",
		"current", current.ID,
		"previous", snapshotID(previous),
		"new", counts.New,
		"updated", counts.Updated,
		"stale", counts.Stale,
	)

	if path := c.String("json-output"); path != "" {
		if err := digest.NewSummary(cl, settings.Mode).WriteFile(path); err != nil {
			return err
		}
	}

	names := st.cfg.Sinks
	if c.IsSet("sink") {
		names = c.StringSlice("sink")
	}
	if c.Bool("quiet") {
		names = slices.DeleteFunc(slices.Clone(names), func(n string) bool { return n == sink.NameStdout })
	}

	if c.Bool("interactive") {
		form := ui.NewSendForm(sink.Names, names, counts)
		result, err := form.Run()
		if err != nil {
			return err
		}
		if !result.Confirmed {
			fmt.Fprintln(c.App.ErrWriter, "Cancelled; nothing sent.")
			return nil
		}
		names = result.Sinks
	}

	var deliveryLog *config.DeliveryLog
	if path := st.cfg.DeliveryLogPath(); path != "" {
		deliveryLog, err = config.LoadDeliveryLog(path)
		if err != nil {
			st.logger.Warn("ignoring unreadable delivery log", "path", path, "err", err)
			deliveryLog = nil
		}
	}
	if c.Bool("skip-delivered") && deliveryLog != nil {
		pending := deliveryLog.Pending(current.ID, names)
		if len(pending) < len(names) {
			st.logger.Info("skipping sinks that already received this snapshot",
				"snapshot", current.ID, "pending", strings.Join(pending, ","))
		}
		names = pending
	}

	sinks, err := buildSinks(names, sinkOptions(c, st.cfg))
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		sinks = append(sinks, &sink.File{Path: out})
	}
	if len(sinks) == 0 {
		return nil
	}

	if err := deliver(c.Context, sinks, text); err != nil {
		return err
	}

	if deliveryLog != nil && len(names) > 0 {
		deliveryLog.Record(current.ID, snapshotID(previous), names)
		if err := deliveryLog.Save(); err != nil {
			st.logger.Warn("failed to save delivery log", "err", err)
		}
	}
	return nil
}

func deliver(ctx context.Context, sinks []sink.Sink, text string) error {
	if err := sink.Deliver(ctx, sinks, text); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	return nil
}

func snapshotID(s *snapshot.Snapshot) string {
	if s == nil {
		return ""
	}
	return s.ID
}
