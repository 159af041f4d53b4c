package mocks

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

// MockSheetRepository is a mock implementation of the SheetRepository interface
// for testing the service layer.
type MockSheetRepository struct {
	ReadTabFunc func(ctx context.Context, sheetID, tab string, rng models.Range) (models.Sheet, error)

	calls atomic.Int64
}

// ReadTab implements the SheetRepository interface
func (m *MockSheetRepository) ReadTab(ctx context.Context, sheetID, tab string, rng models.Range) (models.Sheet, error) {
	m.calls.Add(1)
	if m.ReadTabFunc != nil {
		return m.ReadTabFunc(ctx, sheetID, tab, rng)
	}
	return models.Sheet{}, errors.New("ReadTabFunc not implemented")
}

// Calls reports how many times ReadTab ran.
func (m *MockSheetRepository) Calls() int {
	return int(m.calls.Load())
}
