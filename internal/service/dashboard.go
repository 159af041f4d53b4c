package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

const monthPlaceholder = "{month}"

var ErrUnknownChart = errors.New("unknown chart")

type DashboardOption func(*DashboardService)

// WithNow replaces time.Now for section titles.
func WithNow(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

// WithSourceHealth registers a callback told whether the product code tab,
// which every view depends on, could be read.
func WithSourceHealth(fn func(healthy bool)) DashboardOption {
	return func(s *DashboardService) { s.onHealth = fn }
}

// DashboardService assembles KPI cards and charts from the layout. Each card
// and chart is computed on its own; a failure only degrades that unit.
type DashboardService struct {
	source   SheetSource
	layout   *layout.Layout
	logger   *zap.Logger
	now      func() time.Time
	onHealth func(bool)

	healthMu sync.Mutex
	healthy  *bool
}

func NewDashboardService(source SheetSource, l *layout.Layout, logger *zap.Logger, opts ...DashboardOption) *DashboardService {
	if source == nil {
		panic("source must not be nil")
	}
	if l == nil {
		panic("layout must not be nil")
	}
	if logger == nil {
		lg, _ := zap.NewProduction()
		logger = lg
	}
	s := &DashboardService{
		source: source,
		layout: l,
		logger: logger.Named("dashboard"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DashboardService) Layout() *layout.Layout { return s.layout }

func (s *DashboardService) reportHealth(healthy bool) {
	s.healthMu.Lock()
	changed := s.healthy == nil || *s.healthy != healthy
	s.healthy = &healthy
	s.healthMu.Unlock()

	if !changed {
		return
	}
	if healthy {
		s.logger.Info("data source healthy")
	} else {
		s.logger.Warn("data source unhealthy")
	}
	if s.onHealth != nil {
		s.onHealth(healthy)
	}
}

// ProductCodes returns the sorted distinct product codes, the selection universe.
func (s *DashboardService) ProductCodes(ctx context.Context) ([]string, error) {
	ref := s.layout.ProductCodes
	rng, _ := models.ParseRange(ref.Range)

	res := s.source.Load(ctx, s.layout.SheetID, ref.Tab, rng)
	if res.Status == LoadFailed {
		s.reportHealth(false)
		return nil, res.Err
	}
	s.reportHealth(true)

	codes := res.Table.Unique(analytics.ProductCodeColumn)
	sort.Strings(codes)
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// Definitions returns the KPI definitions; an unreadable tab yields none, so
// every card falls back to the placeholder definition.
func (s *DashboardService) Definitions(ctx context.Context) analytics.Definitions {
	ref := s.layout.Definitions
	if ref.Tab == "" {
		return analytics.Definitions{}
	}
	rng, _ := models.ParseRange(ref.Range)

	res := s.source.Load(ctx, s.layout.SheetID, ref.Tab, rng)
	if res.Status == LoadFailed {
		s.logger.Warn("definitions unavailable", zap.Error(res.Err))
		return analytics.Definitions{}
	}
	return analytics.DefinitionsFromTable(res.Table)
}

// PreviousMonth is the full English name of the month before now.
func (s *DashboardService) PreviousMonth() string {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0).Month().String()
}

// KPISections computes one card per block of every KPI section.
func (s *DashboardService) KPISections(ctx context.Context, codes []string) []KPISection {
	selected := analytics.NewCodeSet(codes...)
	defs := s.Definitions(ctx)
	month := s.PreviousMonth()

	out := make([]KPISection, 0, len(s.layout.KPISections))
	for _, sec := range s.layout.KPISections {
		section := KPISection{
			ID:    sec.ID,
			Title: strings.ReplaceAll(sec.Title, monthPlaceholder, month),
			Month: month,
			Cards: make([]CardResult, 0, len(sec.Blocks)),
		}

		res := s.source.Load(ctx, s.layout.SheetID, sec.Tab, sec.SheetRange())
		for i, block := range sec.Blocks {
			section.Cards = append(section.Cards, s.card(res, block, selected, defs, sec.ID, i))
		}
		out = append(out, section)
	}
	return out
}

func (s *DashboardService) card(res LoadResult, block layout.Block, selected analytics.CodeSet, defs analytics.Definitions, section string, idx int) CardResult {
	switch res.Status {
	case LoadFailed:
		return CardResult{Unit: Unit{Status: UnitError, Message: MessageUnavailable}}
	case LoadEmpty:
		return CardResult{Unit: Unit{Status: UnitNoData, Message: MessageNoData}}
	}

	kpi, err := analytics.ComputeKPI(res.Table.Slice(block.From, block.To), selected, s.layout.Catalog())
	switch {
	case errors.Is(err, analytics.ErrNoData):
		return CardResult{Unit: Unit{Status: UnitNoData, Message: MessageNoData}}
	case err != nil:
		s.logger.Warn("kpi card failed",
			zap.String("section", section),
			zap.Int("block", idx),
			zap.Error(err))
		return CardResult{Unit: Unit{Status: UnitError, Message: err.Error()}}
	}

	card := analytics.BuildCard(kpi, defs)
	return CardResult{Unit: Unit{Status: UnitOK}, Card: &card}
}

// ChartGroups computes every chart, grouped in layout order.
func (s *DashboardService) ChartGroups(ctx context.Context, codes []string) []ChartGroup {
	selected := analytics.NewCodeSet(codes...)

	out := make([]ChartGroup, 0, len(s.layout.Groups))
	for _, g := range s.layout.Groups {
		group := ChartGroup{ID: g.ID, Title: g.Title}
		for _, c := range s.layout.ChartsIn(g.ID) {
			group.Charts = append(group.Charts, s.chart(ctx, c, selected))
		}
		out = append(out, group)
	}
	return out
}

// Chart computes a single chart.
func (s *DashboardService) Chart(ctx context.Context, id string, codes []string) (ChartResult, error) {
	c, ok := s.layout.Chart(id)
	if !ok {
		return ChartResult{}, fmt.Errorf("%w: %s", ErrUnknownChart, id)
	}
	return s.chart(ctx, c, analytics.NewCodeSet(codes...)), nil
}

func (s *DashboardService) chart(ctx context.Context, c layout.Chart, selected analytics.CodeSet) ChartResult {
	out := ChartResult{
		ID:         c.ID,
		Group:      c.Group,
		Title:      c.Title,
		ValueLabel: c.ValueLabel,
		Data:       analytics.TidyTable{BucketColumn: c.Bucket, ValueName: c.ValueLabel, Rows: []analytics.TidyRow{}},
	}

	res := s.source.Load(ctx, s.layout.SheetID, c.Tab, c.SheetRange())
	switch res.Status {
	case LoadFailed:
		out.Unit = Unit{Status: UnitError, Message: MessageUnavailable}
		return out
	case LoadEmpty:
		out.Unit = Unit{Status: UnitNoData, Message: MessageNoData}
		return out
	}

	table := res.Table
	if c.Columns != nil {
		table = table.Slice(c.Columns.From, c.Columns.To)
	}

	ratios := analytics.Aggregate(table, selected, c.Spec())
	out.Data = analytics.ToLong(ratios, c.ValueLabel)
	if len(out.Data.Rows) == 0 {
		out.Unit = Unit{Status: UnitNoData, Message: MessageNoData}
		return out
	}
	out.Unit = Unit{Status: UnitOK}
	return out
}

// Refresh clears cached source data.
func (s *DashboardService) Refresh(ctx context.Context) error {
	return s.source.Refresh(ctx)
}
