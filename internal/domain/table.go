package domain

import (
	"fmt"
	"strings"
)

// Column names shared by the GLORICH tables.
const (
	ColStationID        = "STAT_ID"
	ColCountry          = "Country"
	ColState            = "State"
	ColLatitude         = "Latitude"
	ColLongitude        = "Longitude"
	ColCoordinateSystem = "CoordinateSystem"
)

// LocationColumns is the projection applied to the location table before
// joining: the join key plus the five geographic attribute columns.
var LocationColumns = []string{
	ColStationID, ColCountry, ColState, ColLatitude, ColLongitude, ColCoordinateSystem,
}

// Table is an immutable in-memory delimited table: an ordered header and
// string-valued rows. Cell access goes through the header index so callers
// never hard-code column positions.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a Table from a header and rows. Rows shorter than the
// header are padded with empty cells so lookups stay in bounds; duplicate
// column names are rejected because the header index would be ambiguous.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.TrimSpace(c)
	}

	padded := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) >= len(cols) {
			padded[i] = row[:len(cols)]
			continue
		}
		p := make([]string, len(cols))
		copy(p, row)
		padded[i] = p
	}

	return &Table{columns: cols, index: index, rows: padded}, nil
}

// Columns returns the header in order.
func (t *Table) Columns() []string { return t.columns }

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the raw cells of row i.
func (t *Table) Row(i int) []string { return t.rows[i] }

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, column name), or "" if the column does
// not exist.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Project returns a new Table containing exactly the named columns, in the
// given order. Missing columns are an error.
func (t *Table) Project(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("project: missing column %q", c)
		}
		idx[i] = j
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		out := make([]string, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return NewTable(columns, rows)
}

// Select returns a new Table holding the rows for which keep returns true,
// in input order.
func (t *Table) Select(keep func(row int) bool) *Table {
	rows := make([][]string, 0, len(t.rows))
	for i := range t.rows {
		if keep(i) {
			rows = append(rows, t.rows[i])
		}
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Concat appends the rows of other to a copy of t. Both tables must share
// an identical header.
func (t *Table) Concat(other *Table) (*Table, error) {
	if len(t.columns) != len(other.columns) {
		return nil, fmt.Errorf("concat: header mismatch (%d vs %d columns)", len(t.columns), len(other.columns))
	}
	for i := range t.columns {
		if t.columns[i] != other.columns[i] {
			return nil, fmt.Errorf("concat: header mismatch at column %d (%q vs %q)", i, t.columns[i], other.columns[i])
		}
	}
	rows := make([][]string, 0, len(t.rows)+len(other.rows))
	rows = append(rows, t.rows...)
	rows = append(rows, other.rows...)
	return &Table{columns: t.columns, index: t.index, rows: rows}, nil
}

// JoinStats reports how many rows each side of an inner join contributed
// and lost. Dropped counts make the silent inner-join semantics observable.
type JoinStats struct {
	LeftRows     int
	RightRows    int
	JoinedRows   int
	LeftDropped  int // left rows with no key match on the right
	RightDropped int // right rows with no key match on the left
}

// InnerJoin joins left and right on the named key column. Output columns
// are the left header followed by the right header minus the key; output
// rows follow left order, and a left row matching n right rows emits n
// output rows (standard inner-join multiplication). Rows without a match
// on either side are dropped and counted, never errored.
func InnerJoin(left, right *Table, key string) (*Table, JoinStats, error) {
	leftKey, ok := left.index[key]
	if !ok {
		return nil, JoinStats{}, fmt.Errorf("inner join: left table missing key column %q", key)
	}
	rightKey, ok := right.index[key]
	if !ok {
		return nil, JoinStats{}, fmt.Errorf("inner join: right table missing key column %q", key)
	}

	columns := make([]string, 0, len(left.columns)+len(right.columns)-1)
	columns = append(columns, left.columns...)
	rightCols := make([]int, 0, len(right.columns)-1)
	for i, c := range right.columns {
		if i == rightKey {
			continue
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	byKey := make(map[string][]int, len(right.rows))
	for i, row := range right.rows {
		k := strings.TrimSpace(row[rightKey])
		byKey[k] = append(byKey[k], i)
	}

	stats := JoinStats{LeftRows: len(left.rows), RightRows: len(right.rows)}
	rightMatched := make([]bool, len(right.rows))
	var rows [][]string

	for _, lrow := range left.rows {
		matches := byKey[strings.TrimSpace(lrow[leftKey])]
		if len(matches) == 0 {
			stats.LeftDropped++
			continue
		}
		for _, ri := range matches {
			rightMatched[ri] = true
			out := make([]string, 0, len(columns))
			out = append(out, lrow...)
			for _, ci := range rightCols {
				out = append(out, right.rows[ri][ci])
			}
			rows = append(rows, out)
		}
	}

	for _, m := range rightMatched {
		if !m {
			stats.RightDropped++
		}
	}
	stats.JoinedRows = len(rows)

	joined, err := NewTable(columns, rows)
	if err != nil {
		return nil, JoinStats{}, fmt.Errorf("inner join: %w", err)
	}
	return joined, stats, nil
}
