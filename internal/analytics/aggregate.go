package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Sentinel decides what a bucket with no data turns into.
type Sentinel int

const (
	// ZeroSentinel is used by numeric charts.
	ZeroSentinel Sentinel = iota
	// BlankSentinel is used by breakdown charts so gaps are not plotted as zero.
	BlankSentinel
)

// ParseSentinel maps "zero" / "blank" to a Sentinel.
func ParseSentinel(s string) (Sentinel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return ZeroSentinel, nil
	case "blank":
		return BlankSentinel, nil
	default:
		return 0, fmt.Errorf("unknown sentinel %q", s)
	}
}

// Value is a computed number that may be blank (no data).
type Value struct {
	Number float64
	Blank  bool
}

// Num wraps a finite number; NaN and infinities become blank.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{Blank: true}
	}
	return Value{Number: f}
}

// BlankValue is the no-data marker.
func BlankValue() Value { return Value{Blank: true} }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Blank {
		return []byte("null"), nil
	}
	return json.Marshal(v.Number)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{Blank: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value{Number: f}
	return nil
}

// AggregateSpec configures one ratio aggregation.
type AggregateSpec struct {
	BucketColumn string
	Naming       Naming
	Years        []int
	Sentinel     Sentinel
}

// RatioRow is one time bucket with a ratio per configured year.
type RatioRow struct {
	Bucket string  `json:"bucket"`
	Values []Value `json:"values"`
}

// RatioTable holds the per-bucket ratios. Columns[i] is the output column
// name for Years[i].
type RatioTable struct {
	BucketColumn string     `json:"bucket_column"`
	Years        []int      `json:"years"`
	Columns      []string   `json:"columns"`
	Rows         []RatioRow `json:"rows"`
}

// Aggregate computes sum(numerator)/sum(denominator) per bucket and year over
// the rows whose product code is selected. The bucket domain comes from the
// unfiltered table, so every bucket appears exactly once whatever the filter.
func Aggregate(t Table, selected CodeSet, spec AggregateSpec) RatioTable {
	buckets := t.Unique(spec.BucketColumn)
	filtered := t.Filter(selected)

	type sums struct{ num, den float64 }
	totals := make([]map[string]*sums, len(spec.Years))
	for yi, year := range spec.Years {
		numCol := spec.Naming.Numerator.For(year)
		denCol := spec.Naming.Denominator.For(year)
		bySum := make(map[string]*sums, len(buckets))
		for r := 0; r < filtered.Len(); r++ {
			b, _ := filtered.Cell(r, spec.BucketColumn)
			b = strings.TrimSpace(b)
			if b == "" {
				continue
			}
			s, ok := bySum[b]
			if !ok {
				s = &sums{}
				bySum[b] = s
			}
			s.num += filtered.Number(r, numCol)
			s.den += filtered.Number(r, denCol)
		}
		totals[yi] = bySum
	}

	out := RatioTable{
		BucketColumn: spec.BucketColumn,
		Years:        append([]int(nil), spec.Years...),
		Columns:      make([]string, len(spec.Years)),
		Rows:         make([]RatioRow, 0, len(buckets)),
	}
	for yi, year := range spec.Years {
		out.Columns[yi] = spec.Naming.Output.For(year)
	}

	for _, b := range buckets {
		row := RatioRow{Bucket: b, Values: make([]Value, len(spec.Years))}
		for yi := range spec.Years {
			s := totals[yi][b]
			if s == nil || s.den == 0 {
				row.Values[yi] = spec.Sentinel.value()
				continue
			}
			row.Values[yi] = Num(s.num / s.den)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (s Sentinel) value() Value {
	if s == BlankSentinel {
		return BlankValue()
	}
	return Value{}
}
