// Package httpapi serves the dashboard page and its JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/chart"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/selection"
	"github.com/godilite/engagement-dashboard/internal/service"
)

// Dashboard is what the handlers need from the service layer.
type Dashboard interface {
	ProductCodes(ctx context.Context) ([]string, error)
	KPISections(ctx context.Context, codes []string) []service.KPISection
	ChartGroups(ctx context.Context, codes []string) []service.ChartGroup
	Chart(ctx context.Context, id string, codes []string) (service.ChartResult, error)
	Refresh(ctx context.Context) error
	Layout() *layout.Layout
}

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Debug          bool
		SecureCookies  bool
		SessionMaxAge  time.Duration
		Dashboard      Dashboard
		Sessions       *selection.Store
		Charts         *chart.Renderer
		Logger         *zap.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts   *Options
		app    *echo.Echo
		logger *zap.Logger

		mu           sync.RWMutex
		lastUniverse []string
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Dashboard == nil {
		panic("dashboard must not be nil")
	}
	if opts.Sessions == nil {
		opts.Sessions = selection.NewStore()
	}
	if opts.Charts == nil {
		opts.Charts = chart.NewRenderer(opts.Dashboard.Layout().YearColors)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &server{
		opts:   opts,
		app:    echo.New(),
		logger: logger.Named("http"),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = s.opts.Debug
	s.app.Renderer = newPageRenderer()
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.logger)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.logger))
	}
	if !s.opts.Debug {
		s.app.Use(middleware.Recover())
	}

	s.app.GET("/healthz", s.health)

	sess := s.sessionMiddleware()
	s.app.GET("/", s.index, sess)

	v1 := s.app.Group("/api/v1", sess)
	v1.GET("/selection", s.getSelection)
	v1.PUT("/selection", s.putSelection)
	v1.POST("/selection/all", s.selectAll)
	v1.POST("/selection/clear", s.clearAll)
	v1.POST("/selection/toggle/:code", s.toggle)
	v1.GET("/kpis", s.kpis)
	v1.GET("/charts", s.charts)
	v1.GET("/charts/:id", s.chart)
	v1.GET("/charts/:id/png", s.chartPNG)
	v1.POST("/refresh", s.refresh)
}

// requestLogger logs each request with zap.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

func (s *server) Start() error {
	s.logger.Info("http server listening", zap.String("address", s.opts.Address))
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
