package httpapi

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/godilite/engagement-dashboard/internal/chart"
	"github.com/godilite/engagement-dashboard/internal/selection"
	"github.com/godilite/engagement-dashboard/internal/service"
)

type selectionResponse struct {
	Codes    []string               `json:"codes"`
	Universe []string               `json:"universe"`
	Status   selection.FilterStatus `json:"status"`
}

type selectionRequest struct {
	Codes []string `json:"codes"`
}

type kpiResponse struct {
	Status   selection.FilterStatus `json:"status"`
	Sections []service.KPISection   `json:"sections"`
}

type chartsResponse struct {
	Status selection.FilterStatus `json:"status"`
	Groups []service.ChartGroup   `json:"groups"`
}

func (s *server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func selectionReply(c echo.Context, codes []string) error {
	universe := sessionUniverse(c)
	return c.JSON(http.StatusOK, selectionResponse{
		Codes:    codes,
		Universe: universe,
		Status:   selection.Status(codes, universe),
	})
}

func (s *server) getSelection(c echo.Context) error {
	return selectionReply(c, sessionSelection(c).Codes())
}

func (s *server) putSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid selection body").SetInternal(err)
	}
	return selectionReply(c, sessionSelection(c).Set(req.Codes))
}

func (s *server) selectAll(c echo.Context) error {
	return selectionReply(c, sessionSelection(c).SelectAll(sessionUniverse(c)))
}

func (s *server) clearAll(c echo.Context) error {
	return selectionReply(c, sessionSelection(c).ClearAll())
}

func (s *server) toggle(c echo.Context) error {
	return selectionReply(c, sessionSelection(c).Toggle(c.Param("code")))
}

func (s *server) kpis(c echo.Context) error {
	codes := sessionSelection(c).Codes()
	return c.JSON(http.StatusOK, kpiResponse{
		Status:   selection.Status(codes, sessionUniverse(c)),
		Sections: s.opts.Dashboard.KPISections(c.Request().Context(), codes),
	})
}

func (s *server) charts(c echo.Context) error {
	codes := sessionSelection(c).Codes()
	return c.JSON(http.StatusOK, chartsResponse{
		Status: selection.Status(codes, sessionUniverse(c)),
		Groups: s.opts.Dashboard.ChartGroups(c.Request().Context(), codes),
	})
}

func (s *server) chart(c echo.Context) error {
	res, err := s.opts.Dashboard.Chart(c.Request().Context(), c.Param("id"), sessionSelection(c).Codes())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *server) chartPNG(c echo.Context) error {
	res, err := s.opts.Dashboard.Chart(c.Request().Context(), c.Param("id"), sessionSelection(c).Codes())
	if err != nil {
		return handleError(err)
	}

	switch res.Status {
	case service.UnitError:
		return handleError(service.ErrSourceUnavailable)
	case service.UnitNoData:
		return c.NoContent(http.StatusNoContent)
	}

	var buf bytes.Buffer
	err = s.opts.Charts.Render(&buf, res.Title, res.Data)
	if errors.Is(err, chart.ErrNothingToPlot) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return handleError(err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *server) refresh(c echo.Context) error {
	if err := s.opts.Dashboard.Refresh(c.Request().Context()); err != nil {
		return handleError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) index(c echo.Context) error {
	ctx := c.Request().Context()
	sel := sessionSelection(c)
	codes := sel.Codes()
	universe := sessionUniverse(c)
	l := s.opts.Dashboard.Layout()

	selected := make(map[string]bool, len(codes))
	for _, code := range codes {
		selected[code] = true
	}
	options := make([]productOption, 0, len(universe))
	for _, code := range universe {
		options = append(options, productOption{Code: code, Selected: selected[code]})
	}

	return c.Render(http.StatusOK, "index.html", indexPage{
		Title:     l.Title,
		SourceURL: l.SourceURL,
		Status:    selection.Status(codes, universe),
		Products:  options,
		Sections:  s.opts.Dashboard.KPISections(ctx, codes),
		Groups:    s.opts.Dashboard.ChartGroups(ctx, codes),
	})
}
