package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghosh-vishnu/MINITAB/pkg/store"
)

func TestImportTableSkipsBlanks(t *testing.T) {
	rows := [][]string{
		{"Name", "", "Score"},
		{"", "x", ""},
	}
	inputs := ImportTable(rows, 100, 26)
	require.Len(t, inputs, 3)
	assert.Equal(t, store.CellInput{Row: 0, Col: 0, Value: "Name", DataType: store.TypeText}, inputs[0])
	assert.Equal(t, store.CellInput{Row: 0, Col: 2, Value: "Score", DataType: store.TypeText}, inputs[1])
	assert.Equal(t, store.CellInput{Row: 1, Col: 1, Value: "x", DataType: store.TypeText}, inputs[2])
}

func TestImportTableClipsToCapacity(t *testing.T) {
	rows := [][]string{
		{"keep", "clip"},
		{"clip row"},
	}
	inputs := ImportTable(rows, 1, 1)
	require.Len(t, inputs, 1)
	assert.Equal(t, "keep", inputs[0].Value)
}

func TestClassifyScalar(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"42", store.TypeNumber},
		{"-1.5", store.TypeNumber},
		{"2024-07-01", store.TypeDate},
		{"hello", store.TypeText},
		{"12 monkeys", store.TypeText},
	}
	for _, tt := range tests {
		if got := ClassifyScalar(tt.raw); got != tt.want {
			t.Errorf("ClassifyScalar(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExportTable(t *testing.T) {
	cells := []store.Cell{
		{RowIndex: 1, ColumnIndex: 2, Value: "v"},
		{RowIndex: 0, ColumnIndex: 0, Value: "ignored", Formula: "=A2"},
	}
	rows := ExportTable(cells)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 3)
	assert.Equal(t, "=A2", rows[0][0], "formula wins over value on export")
	assert.Equal(t, "", rows[0][1])
	assert.Equal(t, "v", rows[1][2])

	assert.Nil(t, ExportTable(nil))
}

func TestExportImportRoundTrip(t *testing.T) {
	cells := []store.Cell{
		{RowIndex: 0, ColumnIndex: 0, Value: "Name"},
		{RowIndex: 1, ColumnIndex: 0, Value: "42"},
	}
	rows := ExportTable(cells)
	inputs := ImportTable(rows, 100, 26)

	require.Len(t, inputs, 2)
	assert.Equal(t, "Name", inputs[0].Value)
	assert.Equal(t, 0, inputs[0].Row)
	assert.Equal(t, "42", inputs[1].Value)
	assert.Equal(t, 1, inputs[1].Row)
}

func TestCSVRoundTrip(t *testing.T) {
	rows := [][]string{
		{"a", "b,with comma", ""},
		{"", "quoted \"text\"", "c"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,\"unclosed\nb,c"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestWorkbookRoundTrip(t *testing.T) {
	rows := [][]string{
		{"Name", "Score"},
		{"alpha", "42"},
		{"", "7"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, "Data", rows))

	got, err := ReadWorkbook(bytes.NewReader(buf.Bytes()), "Data")
	require.NoError(t, err)

	// Compare through the importer: trailing blanks are insignificant.
	want := ImportTable(rows, 100, 26)
	assert.Equal(t, want, ImportTable(got, 100, 26))
}

func TestReadWorkbookFirstSheetByDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, "Results", [][]string{{"x"}}))

	rows, err := ReadWorkbook(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "x", rows[0][0])
}

func TestReadWorkbookMalformed(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("this is not a zip archive"), "")
	assert.ErrorIs(t, err, ErrParse)
}

func TestReadWorkbookUnknownSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, "Data", [][]string{{"x"}}))

	_, err := ReadWorkbook(bytes.NewReader(buf.Bytes()), "NoSuchSheet")
	assert.ErrorIs(t, err, ErrParse)
}

func TestPopulatedColumns(t *testing.T) {
	cells := []store.Cell{
		{RowIndex: 0, ColumnIndex: 0, Value: "Header only"},
		{RowIndex: 1, ColumnIndex: 2, Value: "data"},
		{RowIndex: 3, ColumnIndex: 1, Value: "data"},
		{RowIndex: 2, ColumnIndex: 2, Value: "more"},
	}
	assert.Equal(t, []int{1, 2}, PopulatedColumns(cells))
	assert.Empty(t, PopulatedColumns(nil))
}

func TestNumericColumn(t *testing.T) {
	cells := []store.Cell{
		{RowIndex: 3, ColumnIndex: 0, Value: "30"},
		{RowIndex: 0, ColumnIndex: 0, Value: "Header"},
		{RowIndex: 1, ColumnIndex: 0, Value: "10"},
		{RowIndex: 2, ColumnIndex: 0, Value: "not a number"},
		{RowIndex: 1, ColumnIndex: 1, Value: "99"},
	}
	assert.Equal(t, []float64{10, 30}, NumericColumn(cells, 0))
	assert.Empty(t, NumericColumn(cells, 5))
}
