// Package chart draws tidy year series as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/godilite/engagement-dashboard/internal/analytics"
)

const (
	DefaultWidth  = 720
	DefaultHeight = 360
)

// ErrNothingToPlot is returned when every value of the table is blank.
var ErrNothingToPlot = errors.New("nothing to plot")

type Option func(*Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

// Renderer draws one line per year over the bucket axis.
type Renderer struct {
	width  int
	height int
	colors map[string]drawing.Color
}

// NewRenderer takes year → #RRGGBB colours. Years without a colour use the
// go-chart default palette.
func NewRenderer(colors map[string]string, opts ...Option) *Renderer {
	r := &Renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
		colors: make(map[string]drawing.Color, len(colors)),
	}
	for year, hex := range colors {
		r.colors[year] = drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) color(year string, i int) drawing.Color {
	if c, ok := r.colors[year]; ok {
		return c
	}
	return chart.GetDefaultColor(i)
}

// Render writes the PNG. Blank values are left out of their line.
func (r *Renderer) Render(w io.Writer, title string, data analytics.TidyTable) error {
	buckets := data.Buckets()
	index := make(map[string]int, len(buckets))
	ticks := make([]chart.Tick, len(buckets))
	for i, b := range buckets {
		index[b] = i
		ticks[i] = chart.Tick{Value: float64(i), Label: b}
	}

	minY, maxY := 0.0, math.Inf(-1)
	var series []chart.Series
	for i, year := range data.Years() {
		var xs, ys []float64
		for _, row := range data.Rows {
			if row.Year != year || row.Value.Blank {
				continue
			}
			xs = append(xs, float64(index[row.Bucket]))
			ys = append(ys, row.Value.Number)
			minY = math.Min(minY, row.Value.Number)
			maxY = math.Max(maxY, row.Value.Number)
		}
		if len(xs) == 0 {
			continue
		}
		c := r.color(year, i)
		series = append(series, chart.ContinuousSeries{
			Name:    year,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				DotColor:    c,
				DotWidth:    4,
			},
		})
	}
	if len(series) == 0 {
		return ErrNothingToPlot
	}

	if maxY <= minY {
		maxY = minY + 1
	}
	headroom := (maxY - minY) * 0.1

	ch := chart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:  data.BucketColumn,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(buckets)) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  data.ValueName,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY + headroom},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return analytics.FormatValue(analytics.Num(f))
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", title, err)
	}
	return nil
}
