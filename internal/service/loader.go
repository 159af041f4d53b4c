package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/engagement-dashboard/internal/analytics"
	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

const (
	DefaultCacheTTL = 15 * time.Minute
	loadTimeout     = 20 * time.Second
	sheetKeyPrefix  = "sheets:"
)

// ErrSourceUnavailable means a tab could not be fetched from the source.
var ErrSourceUnavailable = errors.New("data source unavailable")

type LoadStatus string

const (
	LoadOK     LoadStatus = "ok"
	LoadEmpty  LoadStatus = "empty"
	LoadFailed LoadStatus = "failed"
)

// LoadResult is the outcome of reading one tab. A failed load carries Err and
// an empty table; callers decide per unit how to degrade.
type LoadResult struct {
	Status LoadStatus
	Table  analytics.Table
	Err    error
}

type LoaderOption func(*SheetLoader)

func WithTTL(ttl time.Duration) LoaderOption {
	return func(l *SheetLoader) { l.ttl = ttl }
}

func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *SheetLoader) { l.timeout = d }
}

// SheetLoader is a read-through cache in front of a SheetRepository, keyed by
// (sheet, tab, range).
type SheetLoader struct {
	repo    SheetRepository
	cache   Cacher
	sf      singleflight.Group
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func NewSheetLoader(repo SheetRepository, cache Cacher, logger *zap.Logger, opts ...LoaderOption) *SheetLoader {
	if repo == nil {
		panic("repository must not be nil")
	}
	if cache == nil {
		panic("cache must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	l := &SheetLoader{
		repo:    repo,
		cache:   cache,
		ttl:     DefaultCacheTTL,
		timeout: loadTimeout,
		logger:  logger.Named("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func sheetKey(sheetID, tab string, rng models.Range) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", sheetKeyPrefix, sheetID, tab, rng.Start, rng.End)
}

// Load returns the tab as a table, from cache when possible.
func (l *SheetLoader) Load(ctx context.Context, sheetID, tab string, rng models.Range) LoadResult {
	key := sheetKey(sheetID, tab, rng)

	sheet, err := FindAndCache(ctx, l.cache, &l.sf, key, l.ttl, l.logger, func(ctx context.Context) (models.Sheet, error) {
		readCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		start := time.Now()
		sheet, err := l.repo.ReadTab(readCtx, sheetID, tab, rng)
		if err != nil {
			return models.Sheet{}, err
		}
		l.logger.Info("tab fetched",
			zap.String("sheet", sheetID),
			zap.String("tab", tab),
			zap.String("range", rng.String()),
			zap.Int("rows", len(sheet.Rows)),
			zap.Duration("took", time.Since(start)))
		return sheet, nil
	})
	if err != nil {
		l.logger.Warn("tab load failed",
			zap.String("sheet", sheetID),
			zap.String("tab", tab),
			zap.Error(err))
		return LoadResult{
			Status: LoadFailed,
			Table:  analytics.NewTable(nil, nil),
			Err:    fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, tab, err),
		}
	}

	table := analytics.NewTable(sheet.Header, sheet.Rows)
	if table.Len() == 0 {
		return LoadResult{Status: LoadEmpty, Table: table}
	}
	return LoadResult{Status: LoadOK, Table: table}
}

// Refresh drops every cached tab so the next Load goes to the source.
func (l *SheetLoader) Refresh(ctx context.Context) error {
	if err := l.cache.DeletePrefix(ctx, sheetKeyPrefix); err != nil {
		return fmt.Errorf("refresh cache: %w", err)
	}
	l.logger.Info("sheet cache cleared")
	return nil
}
