// Package layout describes which tabs, column blocks and naming families the
// dashboard is assembled from. A layout is validated once when loaded.
package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

//go:embed default.yaml
var defaultLayout []byte

var ErrInvalidLayout = errors.New("invalid layout")

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Naming families understood in chart definitions.
const (
	FamilyEnrollment = "enrollment"
	FamilyPrefixed   = "prefixed"
	FamilyScoped     = "scoped"
)

type TabRef struct {
	Tab   string `yaml:"tab"`
	Range string `yaml:"range,omitempty"`
}

// Block is a half-open column interval [From, To) of a tab.
type Block struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

type KPIDefinition struct {
	Label       string `yaml:"label"`
	Kind        string `yaml:"kind"`
	Numerator   string `yaml:"numerator,omitempty"`
	Denominator string `yaml:"denominator,omitempty"`
	Count       string `yaml:"count,omitempty"`
}

type KPIConfig struct {
	Style       string          `yaml:"style"`
	Years       []int           `yaml:"years"`
	Definitions []KPIDefinition `yaml:"definitions"`
}

type KPISection struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Tab    string  `yaml:"tab"`
	Range  string  `yaml:"range,omitempty"`
	Blocks []Block `yaml:"blocks"`

	rng models.Range
}

// SheetRange is the parsed Range.
func (s KPISection) SheetRange() models.Range { return s.rng }

type Naming struct {
	Family string `yaml:"family"`
	Prefix string `yaml:"prefix,omitempty"`
	Metric string `yaml:"metric"`
	Output string `yaml:"output"`
}

type Group struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

type Chart struct {
	ID         string `yaml:"id"`
	Group      string `yaml:"group"`
	Title      string `yaml:"title"`
	Tab        string `yaml:"tab"`
	Range      string `yaml:"range,omitempty"`
	Columns    *Block `yaml:"columns,omitempty"`
	Bucket     string `yaml:"bucket"`
	Naming     Naming `yaml:"naming"`
	ValueLabel string `yaml:"value_label"`
	Sentinel   string `yaml:"sentinel"`

	rng  models.Range
	spec analytics.AggregateSpec
}

// SheetRange is the parsed Range.
func (c Chart) SheetRange() models.Range { return c.rng }

// Spec is the aggregation the chart is drawn from.
func (c Chart) Spec() analytics.AggregateSpec { return c.spec }

type Layout struct {
	Title        string            `yaml:"title"`
	SourceURL    string            `yaml:"source_url,omitempty"`
	SheetID      string            `yaml:"sheet_id"`
	ProductCodes TabRef            `yaml:"product_codes"`
	Definitions  TabRef            `yaml:"definitions"`
	Years        []int             `yaml:"years"`
	YearColors   map[string]string `yaml:"year_colors"`
	KPI          KPIConfig         `yaml:"kpi"`
	KPISections  []KPISection      `yaml:"kpi_sections"`
	Groups       []Group           `yaml:"groups"`
	Charts       []Chart           `yaml:"charts"`

	catalog *analytics.KPICatalog
	charts  map[string]int
}

// Default returns the embedded layout.
func Default() *Layout {
	l, err := Parse(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("embedded layout: %v", err))
	}
	return l
}

// Load reads a layout file; an empty path yields the embedded default.
func Load(path string) (*Layout, error) {
	if path == "" {
		return Parse(defaultLayout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Catalog is the KPI label lookup built from the kpi section.
func (l *Layout) Catalog() *analytics.KPICatalog { return l.catalog }

// Chart looks a chart up by id.
func (l *Layout) Chart(id string) (Chart, bool) {
	i, ok := l.charts[id]
	if !ok {
		return Chart{}, false
	}
	return l.Charts[i], true
}

// ChartsIn returns the charts of a group in layout order.
func (l *Layout) ChartsIn(group string) []Chart {
	var out []Chart
	for _, c := range l.Charts {
		if c.Group == group {
			out = append(out, c)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLayout, fmt.Sprintf(format, args...))
}

func (l *Layout) validate() error {
	if l.SheetID == "" {
		return invalid("sheet_id is required")
	}
	if l.ProductCodes.Tab == "" {
		return invalid("product_codes.tab is required")
	}
	if len(l.Years) == 0 {
		return invalid("at least one year is required")
	}
	for year, color := range l.YearColors {
		if !hexColor.MatchString(color) {
			return invalid("year_colors[%s]: %q is not a #RRGGBB colour", year, color)
		}
	}
	if _, err := models.ParseRange(l.ProductCodes.Range); err != nil {
		return invalid("product_codes: %v", err)
	}
	if _, err := models.ParseRange(l.Definitions.Range); err != nil {
		return invalid("definitions: %v", err)
	}

	if err := l.buildCatalog(); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i := range l.KPISections {
		s := &l.KPISections[i]
		if s.ID == "" || seen[s.ID] {
			return invalid("kpi section %d: missing or duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if s.Tab == "" {
			return invalid("kpi section %s: tab is required", s.ID)
		}
		rng, err := models.ParseRange(s.Range)
		if err != nil {
			return invalid("kpi section %s: %v", s.ID, err)
		}
		s.rng = rng
		if len(s.Blocks) == 0 {
			return invalid("kpi section %s: no blocks", s.ID)
		}
		for _, b := range s.Blocks {
			if err := b.validate(); err != nil {
				return invalid("kpi section %s: %v", s.ID, err)
			}
		}
	}

	groups := make(map[string]bool)
	for _, g := range l.Groups {
		if g.ID == "" || groups[g.ID] {
			return invalid("missing or duplicate group id %q", g.ID)
		}
		groups[g.ID] = true
	}

	l.charts = make(map[string]int, len(l.Charts))
	for i := range l.Charts {
		c := &l.Charts[i]
		if c.ID == "" {
			return invalid("chart %d: id is required", i)
		}
		if _, dup := l.charts[c.ID]; dup {
			return invalid("duplicate chart id %q", c.ID)
		}
		l.charts[c.ID] = i
		if !groups[c.Group] {
			return invalid("chart %s: unknown group %q", c.ID, c.Group)
		}
		if err := l.buildChart(c); err != nil {
			return invalid("chart %s: %v", c.ID, err)
		}
	}
	return nil
}

func (b Block) validate() error {
	if b.From < 0 || b.To <= b.From {
		return fmt.Errorf("bad column block [%d, %d)", b.From, b.To)
	}
	return nil
}

func (l *Layout) buildCatalog() error {
	style, err := analytics.ParseYearStyle(l.KPI.Style)
	if err != nil {
		return invalid("kpi: %v", err)
	}
	if len(l.KPI.Years) != 2 {
		return invalid("kpi: exactly two reference years are required, got %d", len(l.KPI.Years))
	}

	defs := make([]analytics.KPIDefinition, 0, len(l.KPI.Definitions))
	for _, d := range l.KPI.Definitions {
		kind, err := analytics.ParseKPIKind(d.Kind)
		if err != nil {
			return invalid("kpi %q: %v", d.Label, err)
		}
		defs = append(defs, analytics.KPIDefinition{
			Label:       d.Label,
			Kind:        kind,
			Numerator:   d.Numerator,
			Denominator: d.Denominator,
			Count:       d.Count,
		})
	}

	catalog, err := analytics.NewKPICatalog(style, [2]int{l.KPI.Years[0], l.KPI.Years[1]}, defs...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	l.catalog = catalog
	return nil
}

func (l *Layout) buildChart(c *Chart) error {
	if c.Tab == "" {
		return errors.New("tab is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Columns != nil {
		if err := c.Columns.validate(); err != nil {
			return err
		}
	}
	rng, err := models.ParseRange(c.Range)
	if err != nil {
		return err
	}
	c.rng = rng

	sentinel, err := analytics.ParseSentinel(c.Sentinel)
	if err != nil {
		return err
	}

	n := c.Naming
	if n.Metric == "" || n.Output == "" {
		return errors.New("naming needs metric and output")
	}
	var naming analytics.Naming
	switch n.Family {
	case FamilyEnrollment:
		naming = analytics.EnrollmentNaming(n.Metric, n.Output)
	case FamilyPrefixed:
		if n.Prefix == "" {
			return errors.New("prefixed naming needs a prefix")
		}
		naming = analytics.PrefixedNaming(n.Prefix, n.Metric, n.Output)
	case FamilyScoped:
		naming = analytics.ScopedNaming(n.Output, n.Metric)
	default:
		return fmt.Errorf("unknown naming family %q", n.Family)
	}

	if c.ValueLabel == "" {
		c.ValueLabel = c.Title
	}
	c.spec = analytics.AggregateSpec{
		BucketColumn: c.Bucket,
		Naming:       naming,
		Years:        append([]int(nil), l.Years...),
		Sentinel:     sentinel,
	}
	return nil
}
