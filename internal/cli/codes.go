package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCodesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List the product codes available for filtering.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDashboard(cmd, o, func(ctx context.Context, d Dashboard) error {
				codes, err := d.ProductCodes(ctx)
				if err != nil {
					return err
				}
				for _, c := range codes {
					if _, err := fmt.Fprintln(o.out, c); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
