package mocks

import (
	"context"
	"errors"
	"time"
)

// MockCache is a mock implementation of the Cacher interface.
type MockCache struct {
	GetFunc          func(ctx context.Context, key string, dest any) error
	SetFunc          func(ctx context.Context, key string, value any, expiration time.Duration) error
	DeletePrefixFunc func(ctx context.Context, prefix string) error
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return errors.New("GetFunc not implemented")
}

func (m *MockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockCache) DeletePrefix(ctx context.Context, prefix string) error {
	if m.DeletePrefixFunc != nil {
		return m.DeletePrefixFunc(ctx, prefix)
	}
	return nil
}

func (m *MockCache) Close() error {
	return nil
}
