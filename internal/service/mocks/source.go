package mocks

import (
	"context"

	"github.com/godilite/engagement-dashboard/internal/repository/models"
	"github.com/godilite/engagement-dashboard/internal/service"
)

// MockSheetSource is a mock implementation of the SheetSource interface.
type MockSheetSource struct {
	LoadFunc    func(ctx context.Context, sheetID, tab string, rng models.Range) service.LoadResult
	RefreshFunc func(ctx context.Context) error
}

// Load implements the SheetSource interface
func (m *MockSheetSource) Load(ctx context.Context, sheetID, tab string, rng models.Range) service.LoadResult {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, sheetID, tab, rng)
	}
	return service.LoadResult{Status: service.LoadFailed, Err: service.ErrSourceUnavailable}
}

// Refresh implements the SheetSource interface
func (m *MockSheetSource) Refresh(ctx context.Context) error {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}
