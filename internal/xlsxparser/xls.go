// =============================================================================
// DIMOB Converter - XLS Parser
// =============================================================================
//
// Reads BIFF8 workbooks (Excel 97-2003, .xls) through extrame/xls.
//
// CELL VALUES:
//   Unlike XLSX, cells come back formatted by the library: text as stored,
//   numbers as their shortest decimal form. Rows are padded the same way.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"os"

	"github.com/extrame/xls"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// xlsCharset is used for BIFF5 byte strings; BIFF8 text is UTF-16.
const xlsCharset = "utf-8"

// ReadXLSGrid reads a sheet of an Excel 97-2003 (.xls) workbook into a grid.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - sheet: The sheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The grid, every row padded to the same width.
//   - An error if the workbook or the sheet cannot be read.
func ReadXLSGrid(filePath, sheet string) (grid types.Grid, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	// The decoder panics on some malformed records.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("failed to open workbook: corrupt record: %v", r)
		}
	}()

	wb, err := xls.OpenReader(file, xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("failed to open workbook: no Workbook stream")
	}

	ws, err := selectXLSSheet(wb, sheet)
	if err != nil {
		return nil, err
	}

	return padRows(xlsRows(ws)), nil
}

// selectXLSSheet finds a sheet by name, or the first sheet when name is empty.
func selectXLSSheet(wb *xls.WorkBook, name string) (*xls.WorkSheet, error) {
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if name == "" {
		return wb.GetSheet(0), nil
	}

	names := make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		if ws.Name == name {
			return ws, nil
		}
		names = append(names, ws.Name)
	}
	return nil, sheetNotFound(name, names)
}

// xlsRows copies the cell text of a sheet, dropping trailing empty cells.
// Missing rows become empty rows so row indexes match the sheet.
func xlsRows(ws *xls.WorkSheet) [][]string {
	if ws == nil {
		return nil
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}

		// LastCol comes from the ROW record, which stores the column after
		// the last one. Reading one past it is harmless and covers writers
		// that store the last column itself.
		cells := make([]string, 0, row.LastCol()+1)
		for col := 0; col <= row.LastCol(); col++ {
			cells = append(cells, row.Col(col))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}

	// A sheet with no cells reports MaxRow 0.
	if len(rows) == 1 && len(rows[0]) == 0 {
		return nil
	}
	return rows
}
