package app

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/godilite/engagement-dashboard/internal/chart"
	"github.com/godilite/engagement-dashboard/internal/config"
	"github.com/godilite/engagement-dashboard/internal/httpapi"
	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/selection"
	"github.com/godilite/engagement-dashboard/internal/service"
	grpcsrv "github.com/godilite/engagement-dashboard/pkg/grpc/server"

	"go.uber.org/zap"
)

// HealthService is the name the ops listener reports source health under.
const HealthService = "dashboard"

const sweepInterval = 5 * time.Minute

type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      service.Cacher
	sessions   *selection.Store
	httpServer httpapi.Server
	grpcServer *grpcsrv.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := layout.Load(cfg.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("layout init failed: %w", err)
	}
	logger.Info("Layout loaded",
		zap.String("title", l.Title),
		zap.Int("charts", len(l.Charts)),
		zap.Int("kpi_sections", len(l.KPISections)))

	repo, dbPool, err := NewRepository(ctx, cfg, l.SheetID)
	if err != nil {
		return nil, err
	}
	logger.Info("Sheet source initialized", zap.String("backend", cfg.SourceBackend))

	cacheClient, err := NewCache(ctx, cfg)
	if err != nil {
		closeDB(dbPool, logger)
		return nil, err
	}
	logger.Info("Cache client initialized", zap.String("backend", cfg.CacheBackend))

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(cfg.AppEnv != "production"),
		grpcsrv.WithHealthServices(HealthService),
	)
	if err != nil {
		_ = cacheClient.Close()
		closeDB(dbPool, logger)
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	loader := service.NewSheetLoader(repo, cacheClient, logger, service.WithTTL(cfg.CacheTTL))
	dashboard := service.NewDashboardService(loader, l, logger,
		service.WithSourceHealth(func(healthy bool) {
			grpcServer.SetServing(HealthService, healthy)
		}),
	)

	sessions := selection.NewStore(selection.WithDebounce(cfg.SelectionDebounce))

	httpServer := httpapi.NewServer(&httpapi.Options{
		Address:        ":" + strconv.Itoa(cfg.HTTPPort),
		Debug:          cfg.AppEnv == "development",
		DisableReqLogs: cfg.AppEnv == "test",
		SecureCookies:  cfg.AppEnv == "production",
		SessionMaxAge:  cfg.SessionIdleTimeout,
		Dashboard:      dashboard,
		Sessions:       sessions,
		Charts:         chart.NewRenderer(l.YearColors),
		Logger:         logger,
	})

	return &App{
		cfg:        cfg,
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		sessions:   sessions,
		httpServer: httpServer,
		grpcServer: grpcServer,
	}, nil
}

// Run starts the application and blocks until a shutdown signal is received
// or the HTTP server fails.
func (a *App) Run() error {
	a.logger.Info("application starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.grpcServer.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Start()
	}()

	go a.sweepSessions(ctx)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", zap.Error(err))
	}
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("grpc shutdown error", zap.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	closeDB(a.dbPool, a.logger)

	if shutdownCtx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return runErr
}

func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.sessions.Sweep(now, a.cfg.SessionIdleTimeout); n > 0 {
				a.logger.Debug("swept idle sessions", zap.Int("count", n), zap.Int("remaining", a.sessions.Len()))
			}
		}
	}
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("database shutdown error", zap.Error(err))
	}
}
