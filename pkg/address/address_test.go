package address

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A1"},
		{0, 25, "Z1"},
		{0, 26, "AA1"},
		{0, 27, "AB1"},
		{4, 1, "B5"},
		{0, 51, "AZ1"},
		{0, 52, "BA1"},
		{0, 701, "ZZ1"},
		{0, 702, "AAA1"},
		{99, 0, "A100"},
	}
	for _, tt := range tests {
		got := Encode(tt.row, tt.col)
		if got != tt.want {
			t.Errorf("Encode(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		label    string
		row, col int
	}{
		{"A1", 0, 0},
		{"Z1", 0, 25},
		{"AA1", 0, 26},
		{"B5", 4, 1},
		{"b5", 4, 1},
		{" C3 ", 2, 2},
		{"ZZ100", 99, 701},
	}
	for _, tt := range tests {
		row, col, err := Decode(tt.label)
		if err != nil {
			t.Errorf("Decode(%q) returned error: %v", tt.label, err)
			continue
		}
		if row != tt.row || col != tt.col {
			t.Errorf("Decode(%q) = (%d, %d), want (%d, %d)", tt.label, row, col, tt.row, tt.col)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, label := range []string{"", "1", "A", "A0", "A-1", "1A", "A1B", "!?"} {
		_, _, err := Decode(label)
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Decode(%q) = %v, want ErrInvalidAddress", label, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for row := 0; row < 10000; row += 7 {
		for col := 0; col < 1000; col += 3 {
			gotRow, gotCol, err := Decode(Encode(row, col))
			if err != nil {
				t.Fatalf("Decode(Encode(%d, %d)) returned error: %v", row, col, err)
			}
			if gotRow != row || gotCol != col {
				t.Fatalf("Decode(Encode(%d, %d)) = (%d, %d)", row, col, gotRow, gotCol)
			}
		}
	}
}
