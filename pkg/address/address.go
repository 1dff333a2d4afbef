package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned by Decode for labels that are not a column
// letter run followed by a 1-based row number.
var ErrInvalidAddress = errors.New("invalid cell address")

// Encode converts a zero-based (row, column) pair to a spreadsheet label,
// e.g. (0, 0) -> "A1", (0, 27) -> "AB1".
func Encode(row, col int) string {
	return ColumnLabel(col) + strconv.Itoa(row+1)
}

// ColumnLabel converts a zero-based column index to its bijective base-26
// letter run: 0 -> "A", 25 -> "Z", 26 -> "AA".
func ColumnLabel(col int) string {
	var buf []byte
	for col >= 0 {
		buf = append(buf, byte('A'+col%26))
		col = col/26 - 1
	}
	// Digits were produced least significant first
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Decode converts a spreadsheet label back to its zero-based (row, column)
// pair. It is case-insensitive and rejects anything that is not letters
// followed by a positive number.
func Decode(label string) (int, int, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	split := 0
	for split < len(s) && s[split] >= 'A' && s[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(s) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}

	col := 0
	for i := 0; i < split; i++ {
		col = col*26 + int(s[i]-'A') + 1
	}

	rowNum, err := strconv.Atoi(s[split:])
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}

	return rowNum - 1, col - 1, nil
}
