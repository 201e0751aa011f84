package command

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mcao2/prompt-digest/internal/export"
	"github.com/mcao2/prompt-digest/internal/notion"
	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// Snapshot output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatAll  = "all"
)

// SnapshotCommand returns the snapshot command.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Capture the prompt database and save it to the store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input-file",
				Aliases: []string{"i"},
				Usage:   "Re-read an existing snapshot JSON instead of calling Notion",
			},
			&cli.StringFlag{
				Name:    "database-id",
				Aliases: []string{"d"},
				Usage:   "Notion database id (default: config or NOTION_DATABASE_ID)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   FormatJSON,
				Usage:   "Output format: json, csv, xlsx, all",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Value: filepath.Join("data", "prompt_exports"),
				Usage: "Directory for csv and xlsx exports",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the JSON snapshot to this path instead of the store",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of pages to fetch (0: all)",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Notion page size, 1-100 (default: config)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the JSON written by --output",
			},
			&cli.BoolFlag{
				Name:    "silent",
				Aliases: []string{"s"},
				Usage:   "Suppress the summary",
			},
			&cli.StringFlag{
				Name:    "notion-base-url",
				Usage:   "Notion API base URL",
				EnvVars: []string{"NOTION_BASE_URL"},
				Hidden:  true,
			},
		},
		Action: snapshotAction,
	}
}

func snapshotAction(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}

	format := strings.ToLower(c.String("format"))
	switch format {
	case FormatJSON, FormatCSV, FormatXLSX, FormatAll:
	default:
		return fmt.Errorf("unknown format %q (want json, csv, xlsx or all)", format)
	}

	var snap *snapshot.Snapshot
	if path := c.String("input-file"); path != "" {
		snap, err = snapshot.ReadFile(path)
		if err != nil {
			return err
		}
		st.logger.Info("loaded snapshot file", "path", path, "records", len(snap.Records))
	} else {
		snap, err = fetchSnapshot(c, st)
		if err != nil {
			return err
		}
	}

	var saved []string
	stem := ""
	if format == FormatJSON || format == FormatAll {
		if out := c.String("output"); out != "" {
			if err := snapshot.WriteFile(out, snap, c.Bool("pretty")); err != nil {
				return err
			}
			snap.Path = out
			stem = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
			saved = append(saved, fmt.Sprintf("JSON saved to %s", out))
		} else {
			s, err := st.openStore(c)
			if err != nil {
				return err
			}
			id, err := s.Save(c.Context, snap)
			if err != nil {
				return err
			}
			stem = id
			st.logger.Info("saved snapshot", "snapshot", id, "records", len(snap.Records))
			saved = append(saved, fmt.Sprintf("JSON saved to store as %s", id))
		}
	}
	if stem == "" {
		stem = "prompt_snapshot_" + snap.GeneratedAt.Local().Format("20060102-150405")
	}

	var exts []string
	switch format {
	case FormatCSV, FormatXLSX:
		exts = []string{format}
	case FormatAll:
		exts = []string{FormatCSV, FormatXLSX}
	}
	for _, ext := range exts {
		path := filepath.Join(c.String("output-dir"), stem+"."+ext)
		if err := export.WriteFile(path, snap); err != nil {
			return err
		}
		saved = append(saved, fmt.Sprintf("%s saved to %s", strings.ToUpper(ext), path))
	}

	if !c.Bool("silent") {
		w := c.App.Writer
		printSummary(w, snap)
		for _, line := range saved {
			fmt.Fprintf(w, "✅ %s\n", line)
		}
	}
	return nil
}

func fetchSnapshot(c *cli.Context, st *state) (*snapshot.Snapshot, error) {
	databaseID := c.String("database-id")
	if databaseID == "" {
		databaseID = st.cfg.NotionDatabaseID
	}
	if st.cfg.NotionToken == "" || databaseID == "" {
		return nil, fmt.Errorf("NOTION_API_KEY and NOTION_DATABASE_ID must be set (or notion_token / notion_database_id in %s)", st.cfg.Path())
	}

	opts := []notion.ClientOption{notion.WithLogger(st.logger)}
	if base := c.String("notion-base-url"); base != "" {
		opts = append(opts, notion.WithBaseURL(base))
	}
	client, err := notion.NewClient(st.cfg.NotionToken, opts...)
	if err != nil {
		return nil, err
	}

	pageSize := st.cfg.NotionPageSize
	if c.IsSet("page-size") {
		pageSize = c.Int("page-size")
	}
	pages, err := client.QueryDatabase(c.Context, databaseID, notion.QueryOptions{
		PageSize: pageSize,
		Limit:    c.Int("limit"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query notion: %w", err)
	}
	st.logger.Info("fetched pages", "database", databaseID, "pages", len(pages))

	return notion.BuildSnapshot(pages, notion.Source, databaseID, time.Now(), st.logger), nil
}

func printSummary(w io.Writer, snap *snapshot.Snapshot) {
	fmt.Fprintln(w, "📦 Snapshot summary")
	fmt.Fprintf(w, "  Records         : %d\n", len(snap.Records))
	fmt.Fprintf(w, "  Generated at    : %s\n", snapshot.FormatTimestamp(snap.GeneratedAt))
	if snap.DatabaseID != "" {
		fmt.Fprintf(w, "  Database ID     : %s\n", snap.DatabaseID)
	}
	properties := "-"
	if len(snap.PropertyKeys) > 0 {
		properties = strings.Join(snap.PropertyKeys, ", ")
	}
	fmt.Fprintf(w, "  Property fields : %s\n", properties)
	if snap.CategoryField != "" {
		counts := make([]string, len(snap.Categories))
		for i, cat := range snap.Categories {
			counts[i] = fmt.Sprintf("%s (%d)", cat.Name, cat.Count)
		}
		fmt.Fprintf(w, "  Categories (%s): %s\n", snap.CategoryField, strings.Join(counts, ", "))
	}
	fmt.Fprintln(w)
}
