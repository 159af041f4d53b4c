package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godilite/engagement-dashboard/internal/app"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/repository"
)

func newImportCmd(o *options) *cobra.Command {
	var (
		sheetID string
		tabs    []string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy workbook tabs into the sqlite sheet store.",
		Long: `Copy tabs from <WORKBOOK_DIR>/<sheet>.xlsx into the sqlite database at DB_PATH,
replacing any table of the same name. Cell values are copied verbatim so the
same A1 ranges resolve against both backends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if sheetID == "" {
				l, err := layout.Load(o.cfg.LayoutFile)
				if err != nil {
					return fmt.Errorf("load layout: %w", err)
				}
				sheetID = l.SheetID
			}

			db, err := app.OpenDatabase(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := ImportWorkbook(ctx,
				repository.NewWorkbookRepository(o.cfg.WorkbookDir),
				repository.NewSQLRepository(db, sheetID),
				sheetID, tabs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(o.out, "Imported %d tab(s) from %s\n", n, sheetID)
			return err
		},
	}
	cmd.Flags().StringVar(&sheetID, "sheet", "", "Sheet id to import (default: the layout's sheet_id).")
	cmd.Flags().StringSliceVar(&tabs, "tab", nil, "Tabs to import (default: all).")
	return cmd
}

// ImportWorkbook copies tabs from src into dst and returns how many it wrote.
func ImportWorkbook(ctx context.Context, src *repository.WorkbookRepository, dst *repository.SQLRepository, sheetID string, tabs []string) (int, error) {
	if len(tabs) == 0 {
		all, err := src.Tabs(ctx, sheetID)
		if err != nil {
			return 0, err
		}
		tabs = all
	}
	for i, tab := range tabs {
		grid, err := src.ReadGrid(ctx, sheetID, tab)
		if err != nil {
			return i, fmt.Errorf("read %s: %w", tab, err)
		}
		if err := dst.WriteTab(ctx, sheetID, tab, grid); err != nil {
			return i, fmt.Errorf("write %s: %w", tab, err)
		}
	}
	return len(tabs), nil
}
