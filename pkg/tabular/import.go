// Package tabular converts between the store's sparse cell triples and dense
// tabular file formats (CSV, XLSX workbooks).
package tabular

import (
	"errors"
	"strconv"
	"time"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
	log "github.com/sirupsen/logrus"
)

// ErrParse is returned for file content that cannot be read as a table.
// Parsing always fails before any store write, so a corrupt file never
// leaves a partial import behind.
var ErrParse = errors.New("malformed tabular file")

// ImportTable flattens a dense 2-D table into cell inputs. Blank raw values
// are skipped, and positions at or beyond the grid capacity are dropped
// rather than resizing the grid. Each accepted value gets a scalar type
// classification.
func ImportTable(rows [][]string, maxRows, maxCols int) []store.CellInput {
	var inputs []store.CellInput
	clipped := 0
	for rowIdx, row := range rows {
		if rowIdx >= maxRows {
			clipped += len(row)
			continue
		}
		for colIdx, raw := range row {
			if raw == "" {
				continue
			}
			if colIdx >= maxCols {
				clipped++
				continue
			}
			inputs = append(inputs, store.CellInput{
				Row:      rowIdx,
				Col:      colIdx,
				Value:    raw,
				DataType: ClassifyScalar(raw),
			})
		}
	}
	if clipped > 0 {
		log.Warnf("Import dropped %d values beyond the %dx%d grid", clipped, maxRows, maxCols)
	}
	return inputs
}

// ClassifyScalar tags an imported raw value as number, date or text.
func ClassifyScalar(raw string) string {
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return store.TypeNumber
	}
	if _, err := time.Parse("2006-01-02", raw); err == nil {
		return store.TypeDate
	}
	return store.TypeText
}
