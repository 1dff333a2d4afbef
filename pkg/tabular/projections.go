package tabular

import (
	"sort"
	"strconv"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

// PopulatedColumns returns the distinct column indices holding at least one
// non-empty cell below the header row (row 0), in ascending order. Charting
// consumers use this to offer selectable data series.
func PopulatedColumns(cells []store.Cell) []int {
	seen := make(map[int]bool)
	for _, c := range cells {
		if c.RowIndex == 0 {
			continue
		}
		if c.Value == "" && c.Formula == "" {
			continue
		}
		seen[c.ColumnIndex] = true
	}
	cols := make([]int, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

// NumericColumn returns the numeric-coercible values of one column below the
// header row, in row order. Non-numeric values are skipped.
func NumericColumn(cells []store.Cell, col int) []float64 {
	var picked []store.Cell
	for _, c := range cells {
		if c.ColumnIndex == col && c.RowIndex > 0 {
			picked = append(picked, c)
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].RowIndex < picked[j].RowIndex
	})
	var values []float64
	for _, c := range picked {
		if v, err := strconv.ParseFloat(c.Value, 64); err == nil {
			values = append(values, v)
		}
	}
	return values
}
