// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"header skipped", "part\nA1\nB2\n", []string{"A1", "B2"}},
		{"blanks ignored", "part,qty\nA1,3\n,4\n  ,5\nC3,1\n", []string{"A1", "C3"}},
		{"ragged rows", "part\nA1,extra,more\nB2\n", []string{"A1", "B2"}},
		{"only header", "part\n", nil},
		{"empty", "", nil},
		{"duplicates kept", "part\nA\nA\n", []string{"A", "A"}},
		{"numbers stay strings", "part\n00123\n4.5\n", []string{"00123", "4.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.CSV")
	require.NoError(t, os.WriteFile(path, []byte("Part Number\nX-1\nX-2\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"X-1", "X-2"}, got)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Part Number"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Qty"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "PN-100"))
	require.NoError(t, f.SetCellValue(sheet, "A3", 12345))
	require.NoError(t, f.SetCellValue(sheet, "B4", "no part here"))
	require.NoError(t, f.SetCellValue(sheet, "A5", "PN-200"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PN-100", "12345", "PN-200"}, got)
}

func TestLoadUnsupported(t *testing.T) {
	for _, name := range []string{"parts.ods", "parts.txt", "parts"} {
		_, err := Load(filepath.Join(t.TempDir(), name))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), "%s: %v", name, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadXLSRejectsNonWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.xls")
	require.NoError(t, os.WriteFile(path, []byte("Part Number\nA1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat), "xls is a supported format: %v", err)
	assert.ErrorContains(t, err, "workbook")
}

func TestLoadXLSMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xls"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
