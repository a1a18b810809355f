// =============================================================================
// DIMOB Converter - XLSX Parser Module
// =============================================================================
//
// This module turns one sheet of an XLSX workbook into a grid of cell values.
//
// CELL VALUES:
//   Cells are read raw, without number formats applied. Dates therefore
//   arrive as day serials ("45366") and amounts without locale grouping
//   ("1234.56"); both are understood by the DIMOB writer.
//
// ROW SHAPE:
//   excelize drops trailing empty cells. Every row is padded with empty
//   strings to the width of the widest row so a blank but present cell is
//   distinguishable from a column the sheet never had.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadGrid reads a sheet of an XLSX file into a grid.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - sheet: The sheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The grid, every row padded to the same width.
//   - An error if the workbook or the sheet cannot be read.
func ReadGrid(filePath, sheet string) (types.Grid, error) {
	f, err := excelize.OpenFile(filePath, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

// readSheet reads all rows of the selected sheet from an open workbook.
func readSheet(f *excelize.File, sheet string) (types.Grid, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if index, err := f.GetSheetIndex(sheet); err != nil || index < 0 {
		return nil, sheetNotFound(sheet, f.GetSheetList())
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	return padRows(rows), nil
}

// sheetNotFound names the missing sheet and the ones the workbook has.
func sheetNotFound(sheet string, available []string) error {
	return fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(available, ", "))
}

// padRows extends every row to the width of the widest one.
func padRows(rows [][]string) types.Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	grid := make(types.Grid, len(rows))
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		grid[i] = row
	}
	return grid
}
