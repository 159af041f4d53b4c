package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/service"
)

// handleError maps service errors to HTTP errors.
func handleError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrUnknownChart):
		return echo.NewHTTPError(http.StatusNotFound, "chart not found").SetInternal(err)
	case errors.Is(err, service.ErrSourceUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, service.MessageUnavailable).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
	}
}

// newHTTPErrorHandler renders errors as {"error": message}, or as a short
// HTML page for the dashboard page itself.
func newHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var message any = http.StatusText(code)

		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			code = herr.Code
			message = herr.Message
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}
		if c.Echo().Debug {
			message = err.Error()
		}

		if c.Response().Committed {
			return
		}

		var sendErr error
		switch {
		case c.Request().Method == http.MethodHead:
			sendErr = c.NoContent(code)
		case c.Path() == "/":
			sendErr = c.Render(code, "error.html", errorPage{Code: code, Message: message})
		default:
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			sendErr = c.JSON(code, message)
		}
		if sendErr != nil {
			logger.Error("failed to send error response", zap.Error(sendErr))
		}
	}
}
