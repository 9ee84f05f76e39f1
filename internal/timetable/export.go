package timetable

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var exportColumns = []string{"Day", "Subject", "Start", "End"}

// sheetWriter appends rows to the current sheet of a workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	used         map[string]bool
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{
		file: excelize.NewFile(),
		used: make(map[string]bool),
	}
}

// sheetName makes an Excel-safe, unique sheet name.
func (w *sheetWriter) sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "Sheet"
	}

	candidate := truncate(name, maxSheetName)
	for i := 2; w.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	w.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func (w *sheetWriter) addSheet(name string) error {
	name = w.sheetName(name)

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	return w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
}

func (w *sheetWriter) writeRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

// ExportXLSX writes one sheet per group, ordered by group key, each with a
// bold header row. An empty timetable yields a single header-only sheet.
func ExportXLSX(out io.Writer, t Timetable) error {
	w := newSheetWriter()
	defer w.file.Close()

	keys := make([]string, 0, len(t))
	for k, entries := range t {
		if len(entries) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		if err := w.addSheet("Timetable"); err != nil {
			return err
		}
		if err := w.writeHeader(exportColumns); err != nil {
			return err
		}
	}

	for _, key := range keys {
		if err := w.addSheet(key); err != nil {
			return err
		}
		if err := w.writeHeader(exportColumns); err != nil {
			return err
		}

		entries := append([]Entry(nil), t[key]...)
		sortEntries(entries)
		for _, e := range entries {
			if err := w.writeRow([]interface{}{e.Day, e.Subject, e.StartTime, e.EndTime}); err != nil {
				return fmt.Errorf("write %s row: %w", key, err)
			}
		}
	}

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
