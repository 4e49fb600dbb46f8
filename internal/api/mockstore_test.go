package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

// MockStore implements store.Store for error path tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateChart(ctx context.Context, c *model.Chart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) GetChart(ctx context.Context, id string) (*model.Chart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chart), args.Error(1)
}

func (m *MockStore) GetChartByName(ctx context.Context, name string) (*model.Chart, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chart), args.Error(1)
}

func (m *MockStore) ListCharts(ctx context.Context, creator string) ([]*store.ChartSummary, error) {
	args := m.Called(ctx, creator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.ChartSummary), args.Error(1)
}

func (m *MockStore) UpdateChart(ctx context.Context, c *model.Chart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) DeleteChart(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) NameAvailable(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) UpsertUser(ctx context.Context, chartID string, u *model.User) (*model.Chart, error) {
	args := m.Called(ctx, chartID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chart), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, chartID, username string) (*model.Chart, error) {
	args := m.Called(ctx, chartID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chart), args.Error(1)
}

func (m *MockStore) Close() error { return nil }
