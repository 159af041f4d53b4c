package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/repository/models"
	"github.com/godilite/engagement-dashboard/internal/service"
	"github.com/godilite/engagement-dashboard/internal/service/mocks"
)

const testLayout = `
sheet_id: s
product_codes:
  tab: Product Code
definitions:
  tab: Defs
years: [2024, 2025]
kpi:
  style: short
  years: [2024, 2025]
  definitions:
    - label: Score Gain
      kind: ratio
      numerator: total_diff_score
      denominator: total_eid
    - label: Active Users
      kind: count
      count: total_active_user
kpi_sections:
  - id: month
    title: KPIs for the month of {month}
    tab: KPIs
    blocks:
      - {from: 0, to: 4}
      - {from: 5, to: 9}
groups:
  - id: gain
    title: Score Gain by Expiry Month
charts:
  - id: score_gain
    group: gain
    title: Score Gain
    tab: Score
    bucket: Expiry_month
    naming:
      family: enrollment
      metric: score_gain
      output: Score_gain
    sentinel: zero
  - id: broken
    group: gain
    title: Broken
    tab: Missing
    bucket: Expiry_month
    naming:
      family: enrollment
      metric: score_gain
      output: Score_gain
    sentinel: zero
`

func ok(columns []string, rows ...[]string) service.LoadResult {
	return service.LoadResult{Status: service.LoadOK, Table: analytics.NewTable(columns, rows)}
}

func fixtureTabs() map[string]service.LoadResult {
	return map[string]service.LoadResult{
		"Product Code": ok([]string{"product_code"}, []string{"B"}, []string{"A"}, []string{"A"}),
		"Defs": ok([]string{"KPI_Metrics", "Definition"},
			[]string{"Score Gain", "Average gain per enrollment."}),
		"KPIs": ok(
			[]string{"Parameter", "product_code", "total_diff_score_24", "total_eid_24", "total_diff_score_25", "Parameter", "product_code", "total_active_user_24", "total_active_user_25"},
			[]string{"Score Gain", "A", "10", "2", "", "Active Users", "A", "1,000", "1,500"},
			[]string{"Score Gain", "B", "6", "2", "", "Active Users", "B", "500", "250"},
		),
		"Score": ok(
			[]string{"product_code", "Expiry_month", "kbs_enrollment_id_2024", "score_gain_2024", "kbs_enrollment_id_2025", "score_gain_2025"},
			[]string{"A", "Jan", "2", "10", "0", "0"},
			[]string{"B", "Jan", "2", "6", "4", "8"},
			[]string{"A", "Feb", "1", "3", "1", "5"},
		),
	}
}

func newSource(tabs map[string]service.LoadResult) *mocks.MockSheetSource {
	return &mocks.MockSheetSource{
		LoadFunc: func(_ context.Context, sheetID, tab string, _ models.Range) service.LoadResult {
			if res, ok := tabs[tab]; ok && sheetID == "s" {
				return res
			}
			return service.LoadResult{Status: service.LoadFailed, Err: service.ErrSourceUnavailable}
		},
	}
}

func newDashboard(t *testing.T, source service.SheetSource, opts ...service.DashboardOption) *service.DashboardService {
	t.Helper()
	l, err := layout.Parse([]byte(testLayout))
	require.NoError(t, err)
	opts = append([]service.DashboardOption{
		service.WithNow(func() time.Time { return time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC) }),
	}, opts...)
	return service.NewDashboardService(source, l, zap.NewNop(), opts...)
}

// TestNewDashboardService tests the constructor
func TestNewDashboardService(t *testing.T) {
	l := layout.Default()

	t.Run("nil source panics", func(t *testing.T) {
		assert.Panics(t, func() { service.NewDashboardService(nil, l, zap.NewNop()) })
	})

	t.Run("nil layout panics", func(t *testing.T) {
		assert.Panics(t, func() { service.NewDashboardService(&mocks.MockSheetSource{}, nil, zap.NewNop()) })
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		s := service.NewDashboardService(&mocks.MockSheetSource{}, l, nil)
		assert.Same(t, l, s.Layout())
	})
}

// TestProductCodes tests the selection universe and source health reporting
func TestProductCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted distinct codes", func(t *testing.T) {
		s := newDashboard(t, newSource(fixtureTabs()))
		codes, err := s.ProductCodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, codes)
	})

	t.Run("failure reports unhealthy once", func(t *testing.T) {
		var mu sync.Mutex
		var reports []bool
		health := service.WithSourceHealth(func(h bool) {
			mu.Lock()
			reports = append(reports, h)
			mu.Unlock()
		})

		tabs := fixtureTabs()
		delete(tabs, "Product Code")
		s := newDashboard(t, newSource(tabs), health)

		_, err := s.ProductCodes(ctx)
		assert.ErrorIs(t, err, service.ErrSourceUnavailable)
		_, _ = s.ProductCodes(ctx)

		assert.Equal(t, []bool{false}, reports)
	})
}

// TestKPISections tests card computation and per-card fault isolation
func TestKPISections(t *testing.T) {
	ctx := context.Background()

	t.Run("all selected", func(t *testing.T) {
		s := newDashboard(t, newSource(fixtureTabs()))
		sections := s.KPISections(ctx, []string{"A", "B"})

		require.Len(t, sections, 1)
		sec := sections[0]
		assert.Equal(t, "KPIs for the month of February", sec.Title)
		assert.Equal(t, "February", sec.Month)
		require.Len(t, sec.Cards, 2)

		gain := sec.Cards[0]
		require.Equal(t, service.UnitOK, gain.Status)
		assert.Equal(t, "Score Gain", gain.Card.Title)
		assert.Equal(t, "Average gain per enrollment.", gain.Card.Definition)
		assert.InDelta(t, 4.0, gain.Card.Values[0].Number, 1e-9)
		assert.True(t, gain.Card.Values[1].Blank)
		assert.Equal(t, analytics.DirectionNone, gain.Card.Direction)

		users := sec.Cards[1]
		require.Equal(t, service.UnitOK, users.Status)
		assert.Equal(t, analytics.MissingDefinition, users.Card.Definition)
		assert.Equal(t, [2]string{"1,500", "1,750"}, users.Card.Display)
		assert.Equal(t, analytics.DirectionUp, users.Card.Direction)
	})

	t.Run("empty selection is no data", func(t *testing.T) {
		s := newDashboard(t, newSource(fixtureTabs()))
		sec := s.KPISections(ctx, nil)[0]
		for _, c := range sec.Cards {
			assert.Equal(t, service.UnitNoData, c.Status)
			assert.Equal(t, service.MessageNoData, c.Message)
		}
	})

	t.Run("unknown label degrades only that card", func(t *testing.T) {
		tabs := fixtureTabs()
		kpis := tabs["KPIs"]
		kpis.Table.Rows[0][0] = "Mystery"
		kpis.Table.Rows[1][0] = "Mystery"
		s := newDashboard(t, newSource(tabs))

		sec := s.KPISections(ctx, []string{"A", "B"})[0]
		assert.Equal(t, service.UnitError, sec.Cards[0].Status)
		assert.Contains(t, sec.Cards[0].Message, "Mystery")
		assert.Equal(t, service.UnitOK, sec.Cards[1].Status)
	})

	t.Run("unreachable tab", func(t *testing.T) {
		tabs := fixtureTabs()
		delete(tabs, "KPIs")
		delete(tabs, "Defs")
		s := newDashboard(t, newSource(tabs))

		sec := s.KPISections(ctx, []string{"A"})[0]
		for _, c := range sec.Cards {
			assert.Equal(t, service.UnitError, c.Status)
			assert.Equal(t, service.MessageUnavailable, c.Message)
		}
	})
}

// TestCharts tests chart assembly and isolation
func TestCharts(t *testing.T) {
	ctx := context.Background()
	s := newDashboard(t, newSource(fixtureTabs()))

	t.Run("groups keep failures local", func(t *testing.T) {
		groups := s.ChartGroups(ctx, []string{"A", "B"})
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Charts, 2)

		gain := groups[0].Charts[0]
		assert.Equal(t, service.UnitOK, gain.Status)
		assert.Len(t, gain.Data.Rows, 4)
		assert.Equal(t, service.UnitError, groups[0].Charts[1].Status)
	})

	t.Run("single chart filtered", func(t *testing.T) {
		c, err := s.Chart(ctx, "score_gain", []string{"A"})
		require.NoError(t, err)

		want := []analytics.TidyRow{
			{Bucket: "Jan", Year: "2024", Value: analytics.Num(5)},
			{Bucket: "Feb", Year: "2024", Value: analytics.Num(3)},
			{Bucket: "Jan", Year: "2025", Value: analytics.Num(0)},
			{Bucket: "Feb", Year: "2025", Value: analytics.Num(5)},
		}
		assert.Equal(t, want, c.Data.Rows)
		assert.Equal(t, "Score Gain", c.Data.ValueName)
	})

	t.Run("unknown chart", func(t *testing.T) {
		_, err := s.Chart(ctx, "nope", nil)
		assert.ErrorIs(t, err, service.ErrUnknownChart)
	})

	t.Run("empty tab is no data", func(t *testing.T) {
		tabs := fixtureTabs()
		tabs["Score"] = service.LoadResult{Status: service.LoadEmpty, Table: analytics.NewTable(nil, nil)}
		c, err := newDashboard(t, newSource(tabs)).Chart(ctx, "score_gain", []string{"A"})
		require.NoError(t, err)
		assert.Equal(t, service.UnitNoData, c.Status)
		assert.NotNil(t, c.Data.Rows)
	})
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "December"},
		{time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), "February"},
		{time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), "September"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := service.NewDashboardService(&mocks.MockSheetSource{}, layout.Default(), zap.NewNop(),
				service.WithNow(func() time.Time { return tt.now }))
			assert.Equal(t, tt.want, s.PreviousMonth())
		})
	}
}

func TestRefresh(t *testing.T) {
	called := false
	source := &mocks.MockSheetSource{RefreshFunc: func(context.Context) error {
		called = true
		return nil
	}}
	s := newDashboard(t, source)
	require.NoError(t, s.Refresh(context.Background()))
	assert.True(t, called)
}
