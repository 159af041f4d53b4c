package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/service"
)

var (
	upColor    = color.New(color.FgGreen, color.Bold)
	downColor  = color.New(color.FgRed, color.Bold)
	mutedColor = color.New(color.FgHiBlack)
)

func newKPIsCmd(o *options) *cobra.Command {
	var products string
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show the KPI cards for the current and year-to-date sections.",
		Example: `  dashctl kpis
  dashctl kpis --products BIO,CHEM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDashboard(cmd, o, func(ctx context.Context, d Dashboard) error {
				codes, err := resolveProducts(ctx, d, products)
				if err != nil {
					return err
				}
				for _, section := range d.KPISections(ctx, codes) {
					if err := writeKPISection(o.out, section); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&products, "products", "", "Comma-separated product codes (default: all).")
	return cmd
}

func writeKPISection(w io.Writer, section service.KPISection) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", section.Title); err != nil {
		return err
	}

	years := sectionYears(section)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"KPI", years[0], years[1], "Delta"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight}
	})

	var data [][]string
	for _, card := range section.Cards {
		if card.Status != service.UnitOK || card.Card == nil {
			data = append(data, []string{
				mutedColor.Sprint(card.Message),
				analytics.Placeholder,
				analytics.Placeholder,
				analytics.Placeholder,
			})
			continue
		}
		c := card.Card
		data = append(data, []string{c.Title, c.Display[0], c.Display[1], colorDelta(*c)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// sectionYears labels the value columns from the first ok card.
func sectionYears(section service.KPISection) [2]string {
	for _, card := range section.Cards {
		if card.Card != nil {
			return [2]string{strconv.Itoa(card.Card.Years[0]), strconv.Itoa(card.Card.Years[1])}
		}
	}
	return [2]string{"Previous", "Current"}
}

func colorDelta(c analytics.Card) string {
	switch c.Direction {
	case analytics.DirectionUp:
		return upColor.Sprint("▲ " + c.DisplayDelta)
	case analytics.DirectionDown:
		return downColor.Sprint("▼ " + c.DisplayDelta)
	default:
		return c.DisplayDelta
	}
}
