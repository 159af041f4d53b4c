// Package cli implements dashctl, a terminal view of the engagement dashboard
// that shares the server's configuration and sheet sources.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/app"
	"github.com/godilite/engagement-dashboard/internal/config"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/service"
	"github.com/godilite/engagement-dashboard/pkg/cache"
)

// Dashboard is the subset of the service layer the commands read from.
type Dashboard interface {
	ProductCodes(ctx context.Context) ([]string, error)
	KPISections(ctx context.Context, codes []string) []service.KPISection
	Chart(ctx context.Context, id string, codes []string) (service.ChartResult, error)
	Layout() *layout.Layout
}

// Factory builds a Dashboard and returns a func releasing what it opened.
type Factory func(ctx context.Context) (Dashboard, func(), error)

type Option func(*options)

type options struct {
	cfg     *config.Config
	out     io.Writer
	factory Factory
	logger  *zap.Logger
}

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithFactory replaces the env-driven dashboard construction.
func WithFactory(f Factory) Option {
	return func(o *options) { o.factory = f }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewRootCommand assembles the dashctl command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &options{out: os.Stdout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.LoadFromEnv()
	}
	if o.factory == nil {
		o.factory = defaultFactory(o.cfg, o.logger)
	}

	var noColor bool
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Inspect engagement KPIs and charts from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.SetOut(o.out)
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output.")

	root.AddCommand(
		newCodesCmd(o),
		newKPIsCmd(o),
		newChartsCmd(o),
		newChartCmd(o),
		newImportCmd(o),
	)
	return root
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, opts ...Option) error {
	return NewRootCommand(opts...).ExecuteContext(ctx)
}

func defaultFactory(cfg *config.Config, logger *zap.Logger) Factory {
	return func(ctx context.Context) (Dashboard, func(), error) {
		l, err := layout.Load(cfg.LayoutFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load layout: %w", err)
		}
		repo, db, err := app.NewRepository(ctx, cfg, l.SheetID)
		if err != nil {
			return nil, nil, err
		}
		mem := cache.NewMemory()
		loader := service.NewSheetLoader(repo, mem, logger, service.WithTTL(cfg.CacheTTL))
		cleanup := func() {
			_ = mem.Close()
			if db != nil {
				_ = db.Close()
			}
		}
		return service.NewDashboardService(loader, l, logger), cleanup, nil
	}
}

// withDashboard opens a dashboard for the duration of fn.
func withDashboard(cmd *cobra.Command, o *options, fn func(ctx context.Context, d Dashboard) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, cleanup, err := o.factory(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, d)
}

// resolveProducts returns the explicit selection, or every product code when
// none was given, matching the dashboard's initial state.
func resolveProducts(ctx context.Context, d Dashboard, flag string) ([]string, error) {
	var codes []string
	for _, c := range strings.Split(flag, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) > 0 {
		return codes, nil
	}
	all, err := d.ProductCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product codes: %w", err)
	}
	return all, nil
}
