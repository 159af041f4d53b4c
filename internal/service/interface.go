package service

import (
	"context"
	"time"

	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

// SheetRepository reads one tab of a spreadsheet source.
type SheetRepository interface {
	ReadTab(ctx context.Context, sheetID, tab string, rng models.Range) (models.Sheet, error)
}

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// SheetSource loads tabs as analytics tables. SheetLoader is the production implementation.
type SheetSource interface {
	Load(ctx context.Context, sheetID, tab string, rng models.Range) LoadResult
	Refresh(ctx context.Context) error
}
