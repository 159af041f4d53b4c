package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrInvalidRange = errors.New("invalid cell range")

// Range is an A1-notation rectangle such as A2:AF27. The zero value means the whole tab.
type Range struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// ParseRange accepts "A2:AF27" or an empty string.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	r := Range{Start: strings.ToUpper(start), End: strings.ToUpper(end)}
	if _, _, _, _, err := r.bounds(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func (r Range) IsZero() bool {
	return r.Start == "" && r.End == ""
}

func (r Range) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Start + ":" + r.End
}

func (r Range) bounds() (c1, r1, c2, r2 int, err error) {
	c1, r1, err = excelize.CellNameToCoordinates(r.Start)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	c2, r2, err = excelize.CellNameToCoordinates(r.End)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if c2 < c1 || r2 < r1 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %s ends before it starts", ErrInvalidRange, r)
	}
	return c1, r1, c2, r2, nil
}

// Apply crops a full-tab grid to the range. Trailing empty rows are dropped and
// each row is trimmed of trailing empty cells, matching how sheet APIs return values.
func (r Range) Apply(grid [][]string) ([][]string, error) {
	if r.IsZero() {
		return trimGrid(grid), nil
	}
	c1, r1, c2, r2, err := r.bounds()
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, r2-r1+1)
	for row := r1; row <= r2 && row <= len(grid); row++ {
		src := grid[row-1]
		cells := make([]string, 0, c2-c1+1)
		for col := c1; col <= c2 && col <= len(src); col++ {
			cells = append(cells, src[col-1])
		}
		out = append(out, cells)
	}
	return trimGrid(out), nil
}

func trimGrid(grid [][]string) [][]string {
	out := make([][]string, len(grid))
	for i, row := range grid {
		end := len(row)
		for end > 0 && strings.TrimSpace(row[end-1]) == "" {
			end--
		}
		out[i] = row[:end]
	}
	end := len(out)
	for end > 0 && len(out[end-1]) == 0 {
		end--
	}
	return out[:end]
}

// Sheet is a tab read from a source: a header row and string cells.
type Sheet struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// SheetFromGrid uses the first row as the header when there is more than one
// row. A single row becomes data under positional column names.
func SheetFromGrid(grid [][]string) Sheet {
	switch len(grid) {
	case 0:
		return Sheet{Header: []string{}, Rows: [][]string{}}
	case 1:
		header := make([]string, len(grid[0]))
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
		return Sheet{Header: header, Rows: [][]string{grid[0]}}
	}

	header := grid[0]
	rows := make([][]string, 0, len(grid)-1)
	for _, src := range grid[1:] {
		row := make([]string, len(header))
		copy(row, src)
		rows = append(rows, row)
	}
	return Sheet{Header: header, Rows: rows}
}

// Empty reports whether the sheet has no data rows.
func (s Sheet) Empty() bool {
	return len(s.Rows) == 0
}
