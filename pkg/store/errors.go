package store

import "errors"

var (
	// ErrNotFound is returned when a spreadsheet or worksheet id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrOutOfBounds is returned for writes beyond a spreadsheet's declared
	// row/column capacity. The write is rejected, never clipped.
	ErrOutOfBounds = errors.New("cell address out of bounds")
	// ErrEmptyName is returned when creating or renaming a worksheet with a
	// blank name.
	ErrEmptyName = errors.New("worksheet name is empty")
	// ErrLastWorksheet is returned when deleting the only worksheet of a
	// spreadsheet.
	ErrLastWorksheet = errors.New("cannot delete the last worksheet of a spreadsheet")
)
