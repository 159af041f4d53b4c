package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/godilite/engagement-dashboard/internal/config"
	"github.com/godilite/engagement-dashboard/internal/repository"
	"github.com/godilite/engagement-dashboard/internal/service"
	"github.com/godilite/engagement-dashboard/pkg/cache"
	dbbuilder "github.com/godilite/engagement-dashboard/pkg/database"
)

// NewRepository builds the configured sheet source. The returned *sql.DB is
// nil for the workbook backend; the caller owns closing it otherwise.
func NewRepository(ctx context.Context, cfg *config.Config, sheetID string) (service.SheetRepository, *sql.DB, error) {
	switch cfg.SourceBackend {
	case config.SourceSQLite:
		db, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLRepository(db, sheetID), db, nil
	case config.SourceXLSX:
		return repository.NewWorkbookRepository(cfg.WorkbookDir), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source backend %q", cfg.SourceBackend)
	}
}

// OpenDatabase opens the sqlite sheet store.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	return db, nil
}

// NewCache builds the configured read cache.
func NewCache(ctx context.Context, cfg *config.Config) (service.Cacher, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheRedis:
		c, err := cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
