package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/godilite/engagement-dashboard/internal/chart"
	"github.com/godilite/engagement-dashboard/internal/service"
)

func newChartsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "List the charts defined by the layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDashboard(cmd, o, func(_ context.Context, d Dashboard) error {
				l := d.Layout()
				table := tablewriter.NewWriter(o.out)
				table.Header([]string{"ID", "Group", "Title", "Tab"})
				var data [][]string
				for _, c := range l.Charts {
					data = append(data, []string{c.ID, c.Group, c.Title, c.Tab})
				}
				if err := table.Bulk(data); err != nil {
					return err
				}
				return table.Render()
			})
		},
	}
}

func newChartCmd(o *options) *cobra.Command {
	var (
		products string
		format   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "chart <id>",
		Short: "Compute one chart's series for the selected products.",
		Long: `Compute one chart and print its tidy (bucket, year, value) series.

Formats:
  table    bucket rows by year columns (default)
  csv      tidy rows with a header
  json     the chart result as served by the API
  parquet  tidy rows, snappy compressed
  png      the rendered line chart`,
		Example: `  dashctl chart score_gain --products BIO
  dashctl chart activity_30_days --format parquet --out activity.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ParseFormat(format)
			if err != nil {
				return err
			}
			return withDashboard(cmd, o, func(ctx context.Context, d Dashboard) error {
				codes, err := resolveProducts(ctx, d, products)
				if err != nil {
					return err
				}
				res, err := d.Chart(ctx, args[0], codes)
				if err != nil {
					return err
				}
				if res.Status == service.UnitError {
					return fmt.Errorf("chart %s: %s", res.ID, res.Message)
				}
				return writeTo(o.out, out, func(w io.Writer) error {
					if f == FormatPNG {
						return chart.NewRenderer(d.Layout().YearColors).Render(w, res.Title, res.Data)
					}
					return WriteChart(w, f, res)
				})
			})
		},
	}
	cmd.Flags().StringVar(&products, "products", "", "Comma-separated product codes (default: all).")
	cmd.Flags().StringVarP(&format, "format", "f", string(FormatTable), "Output format: table, csv, json, parquet or png.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout.")
	return cmd
}

// writeTo sends output to path, or to fallback when path is empty.
func writeTo(fallback io.Writer, path string, fn func(io.Writer) error) (err error) {
	if path == "" {
		return fn(fallback)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(file)
}
