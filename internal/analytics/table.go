package analytics

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ProductCodeColumn is the categorical key every source table carries.
const ProductCodeColumn = "product_code"

// Table is a flat extract of one spreadsheet tab. Cells are kept as read.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a Table, padding or truncating rows to the header width.
func NewTable(columns []string, rows [][]string) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(columns))
		copy(row, r)
		out[i] = row
	}
	return Table{Columns: columns, Rows: out}
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a column or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries the column.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the raw cell; ok is false when the column does not exist.
func (t Table) Cell(row int, column string) (string, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][idx], true
}

// Number returns the cell coerced to a float. Missing columns read as zero.
func (t Table) Number(row int, column string) float64 {
	cell, ok := t.Cell(row, column)
	if !ok {
		return 0
	}
	return Coerce(cell)
}

// Slice returns the column block [from, to), clamped to the table width.
func (t Table) Slice(from, to int) Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.Columns) {
		to = len(t.Columns)
	}
	if from >= to {
		return Table{Columns: []string{}, Rows: make([][]string, len(t.Rows))}
	}

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, to-from)
		if from < len(r) {
			copy(row, r[from:min(to, len(r))])
		}
		rows[i] = row
	}
	cols := append([]string(nil), t.Columns[from:to]...)
	return Table{Columns: cols, Rows: rows}
}

// Unique returns the distinct non-blank values of a column in first-seen order.
func (t Table) Unique(column string) []string {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range t.Rows {
		if idx >= len(r) {
			continue
		}
		v := strings.TrimSpace(r[idx])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter returns the rows whose product code is in the set.
func (t Table) Filter(selected CodeSet) Table {
	idx := t.ColumnIndex(ProductCodeColumn)
	rows := make([][]string, 0)
	if idx >= 0 && len(selected) > 0 {
		for _, r := range t.Rows {
			if idx < len(r) && selected.Has(strings.TrimSpace(r[idx])) {
				rows = append(rows, r)
			}
		}
	}
	return Table{Columns: t.Columns, Rows: rows}
}

// Coerce converts a spreadsheet cell into a number. Anything that is not a
// finite number, including blanks and text such as "N/A", becomes zero.
func Coerce(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CodeSet is the set of product codes a computation is restricted to.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from a list of codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}
