package postgres

import "testing"

func TestParseRange(t *testing.T) {
	tests := []struct {
		in       string
		wantRow  int
		wantCols int
		wantErr  bool
	}{
		{in: "A7:B", wantRow: 7, wantCols: 2},
		{in: "A1:D", wantRow: 1, wantCols: 4},
		{in: "B2:B100", wantRow: 2, wantCols: 1},
		{in: "A7", wantErr: true},
		{in: "7:B", wantErr: true},
		{in: "B7:A", wantErr: true},
		{in: "Ax:B", wantErr: true},
	}

	for _, tt := range tests {
		row, cols, err := parseRange(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRange(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRange(%q): %v", tt.in, err)
			continue
		}
		if row != tt.wantRow || cols != tt.wantCols {
			t.Errorf("parseRange(%q) = (%d, %d), want (%d, %d)", tt.in, row, cols, tt.wantRow, tt.wantCols)
		}
	}
}
