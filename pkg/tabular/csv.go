package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses CSV content into a dense table. Rows may have ragged
// lengths; a malformed file is rejected as a whole.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rows, nil
}

// WriteCSV serializes a dense table as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
