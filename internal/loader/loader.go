// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader reads identifiers from the first column of a spreadsheet.
// The first row is a header and is skipped; blank cells are ignored.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file types other than CSV, XLSX, and
// legacy XLS.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Load returns the identifiers in path, in row order.
func Load(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".xls":
		return loadXLS(path)
	default:
		return nil, fmt.Errorf("%w %q: use .csv, .xlsx, or .xls", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV extracts identifiers from CSV data.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing CSV: %w", err)
		}
		rows = append(rows, rec)
	}
	return firstColumn(rows), nil
}

func loadXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return firstColumn(rows), nil
}

// loadXLS reads the first sheet of a BIFF (Excel 97-2003) workbook. The
// decoder panics on some malformed files; that is reported as an error.
func loadXLS(path string) (ids []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ids, err = nil, fmt.Errorf("reading workbook: malformed xls: %v", r)
		}
	}()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		rows = append(rows, []string{row.Col(0)})
	}
	return firstColumn(rows), nil
}

// firstColumn drops the header row and returns the non-blank first cells.
func firstColumn(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	var ids []string
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		ids = append(ids, cell)
	}
	return ids
}
