package table

import "strings"

// Frame is a parsed tabular file held in memory: a header row plus data rows.
// Cell values are kept as trimmed strings; type interpretation happens at
// profiling time, not at parse time.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewFrame builds a Frame from raw rows (first row is the header).
// Short data rows are padded so every row has one cell per column.
func NewFrame(raw [][]string) *Frame {
	if len(raw) == 0 {
		return &Frame{}
	}

	columns := make([]string, len(raw[0]))
	for i, header := range raw[0] {
		columns[i] = strings.TrimSpace(header)
	}

	rows := make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		row := make([]string, len(columns))
		for j := range columns {
			if j < len(r) {
				row[j] = strings.TrimSpace(r[j])
			}
		}
		rows = append(rows, row)
	}

	return &Frame{Columns: columns, Rows: rows}
}

// RowCount returns the number of data rows
func (f *Frame) RowCount() int {
	return len(f.Rows)
}

// ColumnCount returns the number of columns
func (f *Frame) ColumnCount() int {
	return len(f.Columns)
}

// Empty reports whether the frame has no data rows or no columns
func (f *Frame) Empty() bool {
	return len(f.Rows) == 0 || len(f.Columns) == 0
}

// Column returns all values of the named column in row order.
// The second return is false if the column does not exist.
func (f *Frame) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range f.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// Head returns up to n data rows for preview purposes
func (f *Frame) Head(n int) [][]string {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	return f.Rows[:n]
}
