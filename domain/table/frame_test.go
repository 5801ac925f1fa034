package table

import (
	"testing"
)

func TestNewFrame(t *testing.T) {
	raw := [][]string{
		{" date ", "amount"},
		{"2024-01-01", " 100 "},
		{"2024-01-02"},
	}

	f := NewFrame(raw)

	if f.ColumnCount() != 2 {
		t.Fatalf("Expected 2 columns, got %d", f.ColumnCount())
	}
	if f.Columns[0] != "date" {
		t.Errorf("Expected trimmed header 'date', got %q", f.Columns[0])
	}
	if f.RowCount() != 2 {
		t.Fatalf("Expected 2 rows, got %d", f.RowCount())
	}
	if f.Rows[0][1] != "100" {
		t.Errorf("Expected trimmed cell '100', got %q", f.Rows[0][1])
	}
	// Short row padded to column count
	if len(f.Rows[1]) != 2 || f.Rows[1][1] != "" {
		t.Errorf("Expected padded short row, got %v", f.Rows[1])
	}
}

func TestFrameEmpty(t *testing.T) {
	tests := []struct {
		name  string
		raw   [][]string
		empty bool
	}{
		{"no rows at all", nil, true},
		{"header only", [][]string{{"a", "b"}}, true},
		{"header and data", [][]string{{"a"}, {"1"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewFrame(tt.raw).Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestFrameColumn(t *testing.T) {
	f := NewFrame([][]string{
		{"region", "sales"},
		{"north", "10"},
		{"south", "20"},
	})

	values, ok := f.Column("sales")
	if !ok {
		t.Fatal("Expected column 'sales' to exist")
	}
	if len(values) != 2 || values[0] != "10" || values[1] != "20" {
		t.Errorf("Unexpected column values: %v", values)
	}

	if _, ok := f.Column("missing"); ok {
		t.Error("Expected missing column lookup to fail")
	}
}
