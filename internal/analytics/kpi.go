package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// ParameterColumn holds the KPI label on every row of a KPI block.
const ParameterColumn = "Parameter"

var (
	ErrNoData            = errors.New("no data available")
	ErrUnrecognizedLabel = errors.New("unrecognized kpi label")
	ErrInvalidCatalog    = errors.New("invalid kpi catalog")
)

// KPIKind says how a KPI is computed.
type KPIKind int

const (
	// RatioKPI divides a summed numerator by a summed denominator.
	RatioKPI KPIKind = iota
	// CountKPI sums a pre-aggregated count column.
	CountKPI
)

// ParseKPIKind maps "ratio" / "count" to a KPIKind.
func ParseKPIKind(s string) (KPIKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ratio":
		return RatioKPI, nil
	case "count":
		return CountKPI, nil
	default:
		return 0, fmt.Errorf("unknown kpi kind %q", s)
	}
}

// KPIDefinition maps a label to the column templates it is computed from.
type KPIDefinition struct {
	Label       string
	Kind        KPIKind
	Numerator   string
	Denominator string
	Count       string
}

// KPIResult is one scalar KPI for two reference years.
type KPIResult struct {
	Title  string   `json:"title"`
	Years  [2]int   `json:"years"`
	Values [2]Value `json:"values"`
}

// KPICatalog is the fixed label lookup. It is validated once when built.
type KPICatalog struct {
	style YearStyle
	years [2]int
	defs  map[string]KPIDefinition
}

// NewKPICatalog validates and indexes the definitions.
func NewKPICatalog(style YearStyle, years [2]int, defs ...KPIDefinition) (*KPICatalog, error) {
	if years[0] == years[1] {
		return nil, fmt.Errorf("%w: reference years must differ, got %d twice", ErrInvalidCatalog, years[0])
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no definitions", ErrInvalidCatalog)
	}

	index := make(map[string]KPIDefinition, len(defs))
	for _, d := range defs {
		label := strings.TrimSpace(d.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: empty label", ErrInvalidCatalog)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidCatalog, label)
		}
		switch d.Kind {
		case RatioKPI:
			if d.Numerator == "" || d.Denominator == "" {
				return nil, fmt.Errorf("%w: %q needs numerator and denominator", ErrInvalidCatalog, label)
			}
		case CountKPI:
			if d.Count == "" {
				return nil, fmt.Errorf("%w: %q needs a count column", ErrInvalidCatalog, label)
			}
		default:
			return nil, fmt.Errorf("%w: %q has unknown kind %d", ErrInvalidCatalog, label, d.Kind)
		}
		d.Label = label
		index[label] = d
	}

	return &KPICatalog{style: style, years: years, defs: index}, nil
}

// DefaultKPICatalog is the engagement KPI set on two-digit 2024/2025 columns.
func DefaultKPICatalog() *KPICatalog {
	c, err := NewKPICatalog(ShortYear, [2]int{2024, 2025},
		KPIDefinition{Label: "Score Gain", Numerator: "total_diff_score", Denominator: "total_eid"},
		KPIDefinition{Label: "Avg Activity / User", Numerator: "total_sequence_name", Denominator: "total_eid"},
		KPIDefinition{Label: "Avg Questions Answered / User", Numerator: "total_total_scored_items_answered", Denominator: "total_eid"},
		KPIDefinition{Label: "Avg Tests / User", Numerator: "total_sequence_name", Denominator: "total_eid"},
		KPIDefinition{Label: "Active Users", Kind: CountKPI, Count: "total_active_user"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Years returns the two reference years.
func (c *KPICatalog) Years() [2]int { return c.years }

// Lookup returns the definition for a label.
func (c *KPICatalog) Lookup(label string) (KPIDefinition, bool) {
	d, ok := c.defs[strings.TrimSpace(label)]
	return d, ok
}

// Labels returns the known labels.
func (c *KPICatalog) Labels() []string {
	out := make([]string, 0, len(c.defs))
	for l := range c.defs {
		out = append(out, l)
	}
	return out
}

// ComputeKPI filters the block by the selected codes and evaluates the KPI
// named by the first surviving row's label.
func ComputeKPI(t Table, selected CodeSet, catalog *KPICatalog) (KPIResult, error) {
	filtered := t.Filter(selected)
	if filtered.Len() == 0 {
		return KPIResult{}, ErrNoData
	}

	label, _ := filtered.Cell(0, ParameterColumn)
	label = strings.TrimSpace(label)
	def, ok := catalog.Lookup(label)
	if !ok {
		return KPIResult{}, fmt.Errorf("%w: %q", ErrUnrecognizedLabel, label)
	}

	res := KPIResult{Title: def.Label, Years: catalog.years}
	for i, year := range catalog.years {
		switch def.Kind {
		case CountKPI:
			col := ColumnTemplate{Base: def.Count, Style: catalog.style}.For(year)
			res.Values[i] = Num(sumColumn(filtered, col))
		default:
			num := sumColumn(filtered, ColumnTemplate{Base: def.Numerator, Style: catalog.style}.For(year))
			den := sumColumn(filtered, ColumnTemplate{Base: def.Denominator, Style: catalog.style}.For(year))
			if den == 0 {
				res.Values[i] = BlankValue()
				continue
			}
			res.Values[i] = Num(num / den)
		}
	}
	return res, nil
}

func sumColumn(t Table, column string) float64 {
	var total float64
	for r := 0; r < t.Len(); r++ {
		total += t.Number(r, column)
	}
	return total
}
