// Package export flattens snapshots into tabular files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "snapshot"

var baseColumns = []string{"page_id", "title", "url", "archived", "created_time", "last_edited_time"}

// Rows returns the header and one row per record. Property columns follow
// the snapshot's property keys; missing properties are empty cells.
func Rows(snap *snapshot.Snapshot) [][]string {
	header := append(append([]string{}, baseColumns...), snap.PropertyKeys...)
	rows := [][]string{header}
	for _, r := range snap.Records {
		row := []string{
			r.PageID,
			r.Title,
			r.URL,
			strconv.FormatBool(r.Archived),
			r.CreatedTime,
			r.LastEditedTime,
		}
		for _, key := range snap.PropertyKeys {
			v, _ := r.Properties.Get(key)
			row = append(row, v.Stringify())
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes snap as UTF-8 CSV.
func WriteCSV(w io.Writer, snap *snapshot.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(snap)); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes snap as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, snap *snapshot.Snapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	for i, row := range Rows(snap) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("export: apply header style: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

// WriteFile writes snap to path in the format implied by its extension
// (.csv or .xlsx), creating parent directories.
func WriteFile(path string, snap *snapshot.Snapshot) error {
	var write func(io.Writer, *snapshot.Snapshot) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".xlsx":
		write = WriteXLSX
	default:
		return fmt.Errorf("export: unsupported file type %q", filepath.Ext(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
