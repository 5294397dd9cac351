package extract_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/baystatedata/covidetl/internal/etl"
	"github.com/baystatedata/covidetl/internal/extract"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "TestingByDate (Test Date)"))
	_, err := f.NewSheet("LTC Facilities")
	require.NoError(t, err)

	rows := [][]any{
		{"Date", "Molecular Total", "Notes"},
		{"2020-05-12", 8701, "ok"},
		{"2020-05-13", 9035},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("TestingByDate (Test Date)", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "raw-data.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestWorkbookSheets(t *testing.T) {
	t.Parallel()

	wb, err := extract.Workbook(writeWorkbook(t))
	require.NoError(t, err)
	defer wb.Close()

	names := extract.SheetNames(wb)
	assert.Contains(t, names, "TestingByDate (Test Date)")
	assert.Contains(t, names, "LTC Facilities")
}

func TestSheetTablePadsShortRows(t *testing.T) {
	t.Parallel()

	wb, err := extract.Workbook(writeWorkbook(t))
	require.NoError(t, err)
	defer wb.Close()

	table, err := extract.SheetTable(wb, "TestingByDate (Test Date)")
	require.NoError(t, err)

	want := etl.RawTable{
		{"Date", "Molecular Total", "Notes"},
		{"2020-05-12", "8701", "ok"},
		{"2020-05-13", "9035", ""},
	}
	assert.Equal(t, want, table)
}

func TestSheetTableEmptySheet(t *testing.T) {
	t.Parallel()

	wb, err := extract.Workbook(writeWorkbook(t))
	require.NoError(t, err)
	defer wb.Close()

	table, err := extract.SheetTable(wb, "LTC Facilities")
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestWorkbookMissingFile(t *testing.T) {
	t.Parallel()

	_, err := extract.Workbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}
