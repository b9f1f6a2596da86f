package mocks

import (
	"context"

	"stock-mirror/core/remote"

	"github.com/stretchr/testify/mock"
)

// API is a mock implementation of remote.API
type API struct {
	mock.Mock
}

func (m *API) SearchVariants(ctx context.Context, query string, limit int) ([]remote.Variant, error) {
	args := m.Called(ctx, query, limit)
	if variants, ok := args.Get(0).([]remote.Variant); ok {
		return variants, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *API) GetVariant(ctx context.Context, id string) (*remote.Variant, error) {
	args := m.Called(ctx, id)
	if variant, ok := args.Get(0).(*remote.Variant); ok {
		return variant, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *API) ListVariants(ctx context.Context, cursor string, limit int) ([]remote.Variant, string, error) {
	args := m.Called(ctx, cursor, limit)
	if variants, ok := args.Get(0).([]remote.Variant); ok {
		return variants, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *API) ListLocations(ctx context.Context) ([]remote.Location, error) {
	args := m.Called(ctx)
	if locations, ok := args.Get(0).([]remote.Location); ok {
		return locations, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *API) GetInventoryLevel(ctx context.Context, inventoryItemID, locationID string) (int, error) {
	args := m.Called(ctx, inventoryItemID, locationID)
	return args.Int(0), args.Error(1)
}

func (m *API) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID string, quantity int) error {
	args := m.Called(ctx, inventoryItemID, locationID, quantity)
	return args.Error(0)
}
