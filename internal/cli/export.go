package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/parquet-go/parquet-go"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/service"
)

// Format is a chart output encoding.
type Format string

const (
	FormatTable   Format = "table"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatPNG     Format = "png"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatParquet, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// ChartPoint is one tidy row as stored in parquet. Blank values are null.
type ChartPoint struct {
	Chart  string   `parquet:"chart,snappy"`
	Bucket string   `parquet:"bucket,snappy"`
	Year   string   `parquet:"year,snappy"`
	Value  *float64 `parquet:"value,optional,snappy"`
}

// ChartPoints flattens a chart result into parquet rows.
func ChartPoints(res service.ChartResult) []ChartPoint {
	points := make([]ChartPoint, 0, len(res.Data.Rows))
	for _, r := range res.Data.Rows {
		p := ChartPoint{Chart: res.ID, Bucket: r.Bucket, Year: r.Year}
		if !r.Value.Blank {
			v := r.Value.Number
			p.Value = &v
		}
		points = append(points, p)
	}
	return points
}

// WriteChart encodes a chart result in one of the tabular formats.
func WriteChart(w io.Writer, f Format, res service.ChartResult) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatCSV:
		return writeChartCSV(w, res)
	case FormatParquet:
		return writeChartParquet(w, res)
	case FormatTable:
		return writeChartTable(w, res)
	default:
		return fmt.Errorf("format %q is not tabular", f)
	}
}

func writeChartCSV(w io.Writer, res service.ChartResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{res.Data.BucketColumn, "year", res.ValueLabel}); err != nil {
		return err
	}
	for _, r := range res.Data.Rows {
		value := ""
		if !r.Value.Blank {
			value = fmt.Sprintf("%g", r.Value.Number)
		}
		if err := cw.Write([]string{r.Bucket, r.Year, value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeChartParquet(w io.Writer, res service.ChartResult) error {
	writer := parquet.NewGenericWriter[ChartPoint](w)
	if _, err := writer.Write(ChartPoints(res)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// writeChartTable pivots the tidy rows back to one row per bucket.
func writeChartTable(w io.Writer, res service.ChartResult) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", res.Title, res.ValueLabel); err != nil {
		return err
	}
	if res.Status == service.UnitNoData {
		_, err := fmt.Fprintln(w, res.Message)
		return err
	}

	years := res.Data.Years()
	cells := make(map[[2]string]analytics.Value, len(res.Data.Rows))
	for _, r := range res.Data.Rows {
		cells[[2]string{r.Bucket, r.Year}] = r.Value
	}

	table := tablewriter.NewWriter(w)
	table.Header(append([]string{res.Data.BucketColumn}, years...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, bucket := range res.Data.Buckets() {
		row := []string{bucket}
		for _, y := range years {
			v, ok := cells[[2]string{bucket, y}]
			if !ok {
				v = analytics.BlankValue()
			}
			row = append(row, analytics.FormatValue(v))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
