package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Workbook opens a multi-sheet spreadsheet.
func Workbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}

// SheetNames lists the workbook tabs in workbook order.
func SheetNames(f *excelize.File) []string {
	return f.GetSheetList()
}

// SheetTable reads one tab as a 2-D grid with the first row as header.
// Trailing short rows are padded to the header width so every row has the
// same arity.
func SheetTable(f *excelize.File, sheet string) (etl.RawTable, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0])
	table := make(etl.RawTable, 0, len(rows))
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		} else if len(row) > width {
			row = row[:width]
		}
		table = append(table, row)
	}
	return table, nil
}
