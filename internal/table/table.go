// Package table turns HTML markup into plain two-dimensional string grids.
//
// A Table carries one label per column and rows of equal width. Everything
// downstream (selection, projection) works on this contract and never on the
// markup itself.
package table

// Table is a rectangular grid of cell strings with column labels.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table, padding ragged rows with empty cells and inventing
// positional labels for columns the header does not cover.
func New(columns []string, rows [][]string) *Table {
	width := len(columns)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	labels := make([]string, width)
	copy(labels, columns)
	for i := len(columns); i < width; i++ {
		labels[i] = positional(i)
	}

	grid := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		grid[i] = row
	}
	return &Table{Columns: labels, Rows: grid}
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// NumRows returns the body row count (header rows excluded).
func (t *Table) NumRows() int { return len(t.Rows) }

// Column returns up to limit values of column i from the top; limit <= 0
// means all rows.
func (t *Table) Column(i, limit int) []string {
	if i < 0 || i >= t.NumCols() {
		return nil
	}
	n := len(t.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, 0, n)
	for _, r := range t.Rows[:n] {
		out = append(out, r[i])
	}
	return out
}

// Cell returns the value at row r, column c and whether it exists.
func (t *Table) Cell(r, c int) (string, bool) {
	if r < 0 || r >= len(t.Rows) {
		return "", false
	}
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return "", false
	}
	return row[c], true
}
