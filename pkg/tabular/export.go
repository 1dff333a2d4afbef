package tabular

import (
	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

// ExportTable lays a worksheet's sparse cells out as a dense rectangular
// grid sized by the largest occupied row and column. Each position carries
// the cell's formula when one is stored, otherwise its value; unoccupied
// positions are empty strings. This grid is the canonical CSV/XLSX shape.
func ExportTable(cells []store.Cell) [][]string {
	if len(cells) == 0 {
		return nil
	}
	maxRow, maxCol := 0, 0
	for _, c := range cells {
		if c.RowIndex > maxRow {
			maxRow = c.RowIndex
		}
		if c.ColumnIndex > maxCol {
			maxCol = c.ColumnIndex
		}
	}
	rows := make([][]string, maxRow+1)
	for i := range rows {
		rows[i] = make([]string, maxCol+1)
	}
	for _, c := range cells {
		out := c.Value
		if c.Formula != "" {
			out = c.Formula
		}
		rows[c.RowIndex][c.ColumnIndex] = out
	}
	return rows
}
