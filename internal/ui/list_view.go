package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// Entry is one row of a review section
type Entry struct {
	Key        string
	Label      string
	Category   string
	URL        string
	LastEdited time.Time // zero when the record has no last touch
	Days       int       // whole days since the last touch; -1 when unknown
	Properties snapshot.Attributes
}

type ListView struct {
	table       table.Model
	entries     []Entry
	cursor      int
	width       int
	height      int
	visibleRows int // data rows visible, header excluded
	now         time.Time

	headerStyle   lipgloss.Style
	cellStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	columns       []table.Column
}

const (
	categoryWidth = 16
	editedWidth   = 16
	daysWidth     = 6
)

func listColumns(width int) []table.Column {
	// Each cell has Padding(0,1): 4 columns add 8, plus 2 safety.
	labelWidth := width - categoryWidth - editedWidth - daysWidth - 4*2 - 2
	if labelWidth < 20 {
		labelWidth = 20
	}
	return []table.Column{
		{Title: "Prompt", Width: labelWidth},
		{Title: "Category", Width: categoryWidth},
		{Title: "Last edited", Width: editedWidth},
		{Title: "Days", Width: daysWidth},
	}
}

// visibleRowsFor reserves header(2) + tabs(2) + detail pane + status(1) +
// footer(3) + table header(2).
func visibleRowsFor(height int) int {
	rows := height - 10 - detailPaneHeight
	if rows < 3 {
		rows = 3
	}
	return rows
}

func NewListView(width, height int) ListView {
	columns := listColumns(width)
	visibleRows := visibleRowsFor(height)

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(visibleRows+2),
		table.WithFocused(true),
	)

	lv := ListView{
		table:       t,
		width:       width,
		height:      height,
		visibleRows: visibleRows,
		cellStyle:   lipgloss.NewStyle().Padding(0, 1),
		columns:     columns,
	}
	lv.UpdateTableStyles(Themes["default"])
	return lv
}

// UpdateTableStyles updates the styles to match the current theme
func (lv *ListView) UpdateTableStyles(theme Theme) {
	lv.headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Subtle)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(theme.Primary))
	lv.selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Background)).
		Background(lipgloss.Color(theme.Primary))

	s := table.DefaultStyles()
	s.Header = lv.headerStyle
	s.Selected = lv.selectedStyle
	lv.table.SetStyles(s)
}

// SetEntries replaces the rows and resets the cursor. now is the
// reference time of relative dates in the detail pane.
func (lv *ListView) SetEntries(entries []Entry, now time.Time) {
	lv.entries = entries
	lv.now = now
	lv.cursor = 0
	lv.updateRows()
	lv.table.SetCursor(0)
}

func (lv *ListView) updateRows() {
	rows := make([]table.Row, len(lv.entries))
	for i, e := range lv.entries {
		rows[i] = table.Row{e.Label, e.Category, formatEdited(e.LastEdited), formatDays(e.Days)}
	}
	lv.table.SetRows(rows)
}

func formatEdited(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDays(days int) string {
	if days < 0 {
		return "—"
	}
	return fmt.Sprintf("%d", days)
}

// Truncate shortens s to maxLen display cells, ending with an ellipsis
func Truncate(s string, maxLen int) string {
	if runewidth.StringWidth(s) > maxLen {
		return runewidth.Truncate(s, maxLen, "…")
	}
	return s
}

// detailPaneHeight is the fixed number of lines the detail pane always occupies.
const detailPaneHeight = 4

// DetailView renders a detail pane for the entry under the cursor, padded
// to a fixed height.
func (lv *ListView) DetailView(width int, styles Styles) string {
	e := lv.GetEntry(lv.cursor)
	if e == nil {
		return ""
	}

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	var lines []string
	lines = append(lines, styles.Highlight.Render(Truncate(e.Label, maxWidth)))
	if e.URL != "" {
		lines = append(lines, styles.Help.Render(Truncate(e.URL, maxWidth)))
	}

	var meta []string
	if e.Category != "" {
		meta = append(meta, "cat:"+e.Category)
	}
	if !e.LastEdited.IsZero() {
		meta = append(meta, "edited "+humanize.RelTime(e.LastEdited, lv.now, "ago", "from now"))
	}
	if e.Key != "" && e.Key != e.URL {
		meta = append(meta, "id:"+e.Key)
	}
	if len(meta) > 0 {
		lines = append(lines, styles.Normal.Render(Truncate(strings.Join(meta, " · "), maxWidth)))
	}

	if props := propertyLine(e.Properties); props != "" {
		lines = append(lines, styles.HelpDesc.Render(Truncate(props, maxWidth)))
	}

	for len(lines) < detailPaneHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines[:detailPaneHeight], "\n")
}

// propertyLine lists the truthy properties as name=value pairs.
func propertyLine(attrs snapshot.Attributes) string {
	var parts []string
	attrs.Each(func(name string, v snapshot.Value) {
		if v.Truthy() {
			parts = append(parts, name+"="+v.Stringify())
		}
	})
	return strings.Join(parts, "  ")
}

func (lv ListView) Cursor() int {
	return lv.cursor
}

func (lv *ListView) SetCursor(pos int) {
	if pos >= 0 && pos < len(lv.entries) {
		lv.cursor = pos
		lv.table.SetCursor(pos)
	}
}

func (lv *ListView) MoveCursor(delta int) {
	lv.SetCursor(lv.cursor + delta)
}

func (lv ListView) GetEntry(index int) *Entry {
	if index >= 0 && index < len(lv.entries) {
		return &lv.entries[index]
	}
	return nil
}

func (lv ListView) Len() int {
	return len(lv.entries)
}

func (lv *ListView) renderCell(value string, colWidth int) string {
	style := lipgloss.NewStyle().Width(colWidth).MaxWidth(colWidth).Inline(true)
	return lv.cellStyle.Render(style.Render(runewidth.Truncate(value, colWidth, "…")))
}

// View renders the table with our own scrolling window instead of the
// bubbles table viewport.
func (lv ListView) View() string {
	rows := lv.table.Rows()

	headerCells := make([]string, 0, len(lv.columns))
	for _, col := range lv.columns {
		headerCells = append(headerCells, lv.headerStyle.Render(lv.renderCell(col.Title, col.Width)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	visibleRows := lv.visibleRows
	if visibleRows <= 0 {
		visibleRows = 10
	}
	start := 0
	if lv.cursor >= visibleRows {
		start = lv.cursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(rows) {
		end = len(rows)
	}

	rendered := make([]string, 0, visibleRows)
	for i := start; i < end; i++ {
		cells := make([]string, 0, len(lv.columns))
		for ci, value := range rows[i] {
			cells = append(cells, lv.renderCell(value, lv.columns[ci].Width))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if i == lv.cursor {
			row = lv.selectedStyle.Render(row)
		}
		rendered = append(rendered, row)
	}
	for len(rendered) < visibleRows {
		rendered = append(rendered, "")
	}

	return header + "\n" + strings.Join(rendered, "\n")
}

func (lv *ListView) SetWidthHeight(width, height int) {
	lv.width = width
	lv.height = height
	lv.columns = listColumns(width)
	lv.visibleRows = visibleRowsFor(height)
	lv.table.SetHeight(lv.visibleRows + 2)
	lv.table.SetColumns(lv.columns)
}
