package mocks

import (
	"context"
	"errors"

	"github.com/godilite/engagement-dashboard/internal/layout"
	"github.com/godilite/engagement-dashboard/internal/service"
)

// MockDashboard is a mock of the dashboard service as seen by the HTTP and CLI surfaces.
type MockDashboard struct {
	ProductCodesFunc func(ctx context.Context) ([]string, error)
	KPISectionsFunc  func(ctx context.Context, codes []string) []service.KPISection
	ChartGroupsFunc  func(ctx context.Context, codes []string) []service.ChartGroup
	ChartFunc        func(ctx context.Context, id string, codes []string) (service.ChartResult, error)
	RefreshFunc      func(ctx context.Context) error
	LayoutValue      *layout.Layout
}

func (m *MockDashboard) ProductCodes(ctx context.Context) ([]string, error) {
	if m.ProductCodesFunc != nil {
		return m.ProductCodesFunc(ctx)
	}
	return nil, errors.New("ProductCodesFunc not implemented")
}

func (m *MockDashboard) KPISections(ctx context.Context, codes []string) []service.KPISection {
	if m.KPISectionsFunc != nil {
		return m.KPISectionsFunc(ctx, codes)
	}
	return nil
}

func (m *MockDashboard) ChartGroups(ctx context.Context, codes []string) []service.ChartGroup {
	if m.ChartGroupsFunc != nil {
		return m.ChartGroupsFunc(ctx, codes)
	}
	return nil
}

func (m *MockDashboard) Chart(ctx context.Context, id string, codes []string) (service.ChartResult, error) {
	if m.ChartFunc != nil {
		return m.ChartFunc(ctx, id, codes)
	}
	return service.ChartResult{}, errors.New("ChartFunc not implemented")
}

func (m *MockDashboard) Refresh(ctx context.Context) error {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func (m *MockDashboard) Layout() *layout.Layout {
	if m.LayoutValue != nil {
		return m.LayoutValue
	}
	return layout.Default()
}
