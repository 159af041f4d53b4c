package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/httpapi"
	"github.com/godilite/engagement-dashboard/internal/httpapi/mocks"
	"github.com/godilite/engagement-dashboard/internal/selection"
	"github.com/godilite/engagement-dashboard/internal/service"
)

var universe = []string{"MCAT-A", "MCAT-B", "MCAT-C"}

func gainChart(codes []string) service.ChartResult {
	return service.ChartResult{
		Unit:       service.Unit{Status: service.UnitOK},
		ID:         "score_gain",
		Group:      "score_gain",
		Title:      "Score Gain by Expiry Month",
		ValueLabel: "Score Gain",
		Data: analytics.TidyTable{
			BucketColumn: "Expiry_month",
			ValueName:    "Score Gain",
			Rows: []analytics.TidyRow{
				{Bucket: "Jan", Year: "2024", Value: analytics.Num(float64(len(codes)))},
				{Bucket: "Feb", Year: "2024", Value: analytics.Num(2)},
			},
		},
	}
}

func newDashboard() *mocks.MockDashboard {
	return &mocks.MockDashboard{
		ProductCodesFunc: func(context.Context) ([]string, error) { return universe, nil },
		KPISectionsFunc: func(_ context.Context, codes []string) []service.KPISection {
			card := analytics.BuildCard(analytics.KPIResult{
				Title:  "Active Users",
				Years:  [2]int{2024, 2025},
				Values: [2]analytics.Value{analytics.Num(1000), analytics.Num(float64(1000 + len(codes)))},
			}, nil)
			return []service.KPISection{{
				ID:    "month",
				Title: "KPIs for the month of February",
				Cards: []service.CardResult{
					{Unit: service.Unit{Status: service.UnitOK}, Card: &card},
					{Unit: service.Unit{Status: service.UnitNoData, Message: service.MessageNoData}},
				},
			}}
		},
		ChartGroupsFunc: func(_ context.Context, codes []string) []service.ChartGroup {
			return []service.ChartGroup{{ID: "score_gain", Title: "Score Gain", Charts: []service.ChartResult{gainChart(codes)}}}
		},
		ChartFunc: func(_ context.Context, id string, codes []string) (service.ChartResult, error) {
			switch id {
			case "score_gain":
				return gainChart(codes), nil
			case "empty":
				return service.ChartResult{Unit: service.Unit{Status: service.UnitNoData}}, nil
			case "down":
				return service.ChartResult{Unit: service.Unit{Status: service.UnitError}}, nil
			}
			return service.ChartResult{}, fmt.Errorf("%w: %s", service.ErrUnknownChart, id)
		},
	}
}

type client struct {
	t      *testing.T
	srv    httpapi.Server
	cookie *http.Cookie
}

func newClient(t *testing.T, dash httpapi.Dashboard, opts ...selection.Option) *client {
	t.Helper()
	srv := httpapi.NewServer(&httpapi.Options{
		DisableReqLogs: true,
		Dashboard:      dash,
		Sessions:       selection.NewStore(opts...),
		Logger:         zap.NewNop(),
	})
	return &client{t: t, srv: srv}
}

func (c *client) do(method, path string, body []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == httpapi.SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

type selectionBody struct {
	Codes    []string               `json:"codes"`
	Universe []string               `json:"universe"`
	Status   selection.FilterStatus `json:"status"`
}

func decodeSelection(t *testing.T, rec *httptest.ResponseRecorder) selectionBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body selectionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// TestSelectionAPI tests the per-session filter endpoints
func TestSelectionAPI(t *testing.T) {
	t.Run("new session starts with everything", func(t *testing.T) {
		c := newClient(t, newDashboard())
		body := decodeSelection(t, c.do(http.MethodGet, "/api/v1/selection", nil))

		assert.Equal(t, universe, body.Codes)
		assert.Equal(t, "All Products Selected", body.Status.Text)
		require.NotNil(t, c.cookie)
		assert.True(t, c.cookie.HttpOnly)
	})

	t.Run("select all then clear all ends empty", func(t *testing.T) {
		c := newClient(t, newDashboard())
		c.do(http.MethodPost, "/api/v1/selection/all", nil)
		body := decodeSelection(t, c.do(http.MethodPost, "/api/v1/selection/clear", nil))

		assert.Empty(t, body.Codes)
		assert.Equal(t, selection.ToneNone, body.Status.Tone)
	})

	t.Run("put and toggle", func(t *testing.T) {
		c := newClient(t, newDashboard())
		body := decodeSelection(t, c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":["MCAT-B"]}`)))
		assert.Equal(t, []string{"MCAT-B"}, body.Codes)
		assert.Equal(t, "Selected: MCAT-B", body.Status.Text)

		body = decodeSelection(t, c.do(http.MethodPost, "/api/v1/selection/toggle/MCAT-C", nil))
		assert.Equal(t, []string{"MCAT-B", "MCAT-C"}, body.Codes)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := selection.NewStore()
		srv := httpapi.NewServer(&httpapi.Options{DisableReqLogs: true, Dashboard: newDashboard(), Sessions: store})
		a := &client{t: t, srv: srv}
		b := &client{t: t, srv: srv}

		a.do(http.MethodPost, "/api/v1/selection/clear", nil)
		body := decodeSelection(t, b.do(http.MethodGet, "/api/v1/selection", nil))

		assert.Len(t, body.Codes, 3)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("bad body", func(t *testing.T) {
		c := newClient(t, newDashboard())
		rec := c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("source down", func(t *testing.T) {
		dash := newDashboard()
		dash.ProductCodesFunc = func(context.Context) ([]string, error) {
			return nil, fmt.Errorf("%w: Product Code", service.ErrSourceUnavailable)
		}
		c := newClient(t, dash)

		rec := c.do(http.MethodGet, "/api/v1/selection", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"error":"Data source unavailable"}`, rec.Body.String())
	})

	t.Run("existing session survives a product code outage", func(t *testing.T) {
		dash := newDashboard()
		c := newClient(t, dash)
		decodeSelection(t, c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":["MCAT-A"]}`)))

		dash.ProductCodesFunc = func(context.Context) ([]string, error) {
			return nil, fmt.Errorf("%w: Product Code", service.ErrSourceUnavailable)
		}

		body := decodeSelection(t, c.do(http.MethodGet, "/api/v1/selection", nil))
		assert.Equal(t, []string{"MCAT-A"}, body.Codes)
		assert.Equal(t, universe, body.Universe)
		assert.Equal(t, "Selected: MCAT-A", body.Status.Text)

		rec := c.do(http.MethodGet, "/api/v1/kpis", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		fresh := &client{t: t, srv: c.srv}
		rec = fresh.do(http.MethodGet, "/api/v1/selection", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("stale codes are not counted", func(t *testing.T) {
		c := newClient(t, newDashboard())
		body := decodeSelection(t, c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":["MCAT-A","MCAT-B","ZZ"]}`)))
		assert.Equal(t, []string{"MCAT-A", "MCAT-B", "ZZ"}, body.Codes)
		assert.Equal(t, selection.TonePartial, body.Status.Tone)
		assert.Equal(t, 2, body.Status.Selected)
		assert.Equal(t, "Selected: MCAT-A, MCAT-B", body.Status.Text)
	})
}

// TestDashboardAPI tests the kpi and chart endpoints
func TestDashboardAPI(t *testing.T) {
	t.Run("kpis follow the session selection", func(t *testing.T) {
		c := newClient(t, newDashboard())
		c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":["MCAT-A"]}`))

		rec := c.do(http.MethodGet, "/api/v1/kpis", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"display":["1,000","1,001"]`)
		assert.Contains(t, rec.Body.String(), `"status":"no_data"`)
	})

	t.Run("chart json", func(t *testing.T) {
		c := newClient(t, newDashboard())
		rec := c.do(http.MethodGet, "/api/v1/charts/score_gain", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res service.ChartResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "score_gain", res.ID)
		assert.Len(t, res.Data.Rows, 2)
	})

	t.Run("charts list", func(t *testing.T) {
		c := newClient(t, newDashboard())
		rec := c.do(http.MethodGet, "/api/v1/charts", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"groups"`)
	})

	t.Run("unknown chart", func(t *testing.T) {
		c := newClient(t, newDashboard())
		rec := c.do(http.MethodGet, "/api/v1/charts/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("png", func(t *testing.T) {
		c := newClient(t, newDashboard())
		rec := c.do(http.MethodGet, "/api/v1/charts/score_gain/png", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("png without data", func(t *testing.T) {
		c := newClient(t, newDashboard())
		assert.Equal(t, http.StatusNoContent, c.do(http.MethodGet, "/api/v1/charts/empty/png", nil).Code)
		assert.Equal(t, http.StatusServiceUnavailable, c.do(http.MethodGet, "/api/v1/charts/down/png", nil).Code)
	})

	t.Run("refresh", func(t *testing.T) {
		dash := newDashboard()
		refreshed := false
		dash.RefreshFunc = func(context.Context) error {
			refreshed = true
			return nil
		}
		c := newClient(t, dash)
		assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/api/v1/refresh", nil).Code)
		assert.True(t, refreshed)
	})

	t.Run("health needs no session", func(t *testing.T) {
		dash := newDashboard()
		dash.ProductCodesFunc = nil
		c := newClient(t, dash)
		rec := c.do(http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, c.cookie)
	})
}

// TestIndexPage tests the HTML dashboard
func TestIndexPage(t *testing.T) {
	t.Run("renders cards charts and status", func(t *testing.T) {
		c := newClient(t, newDashboard())
		c.do(http.MethodPut, "/api/v1/selection", []byte(`{"codes":["MCAT-A","MCAT-B","MCAT-C","X","Y"]}`))

		rec := c.do(http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := rec.Body.String()

		assert.Contains(t, page, "MCAT Student Engagement Dashboard")
		assert.Contains(t, page, "Selected: MCAT-A, MCAT-B and 3 more")
		assert.Contains(t, page, "KPIs for the month of February")
		assert.Contains(t, page, "Active Users")
		assert.Contains(t, page, "No data available")
		assert.Contains(t, page, `src="/api/v1/charts/score_gain/png"`)
		assert.Equal(t, 3, strings.Count(page, `type="checkbox" checked`))
	})

	t.Run("source down renders an error page", func(t *testing.T) {
		dash := newDashboard()
		dash.ProductCodesFunc = func(context.Context) ([]string, error) { return nil, service.ErrSourceUnavailable }
		c := newClient(t, dash)

		rec := c.do(http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "Error loading data")
	})
}
