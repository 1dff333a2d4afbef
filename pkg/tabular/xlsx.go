package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook parses one sheet of an XLSX workbook into a dense table.
// An empty sheetName selects the workbook's first sheet.
func ReadWorkbook(r io.Reader, sheetName string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook contains no sheets", ErrParse)
		}
		sheetName = sheets[0]
	}
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: no sheet named %q", ErrParse, sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rows, nil
}

// WriteWorkbook serializes a dense table as a single-sheet XLSX workbook.
func WriteWorkbook(w io.Writer, sheetName string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("cell name for (%d, %d): %w", rowIdx, colIdx, err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
