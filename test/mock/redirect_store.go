// test/mock/redirect_store.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/relay/model"
)

// MockRedirectStore is a mock implementation of dao.RedirectStore
type MockRedirectStore struct {
	mock.Mock
}

func (m *MockRedirectStore) FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) ListByOwner(ctx context.Context, ownerID string) ([]model.RedirectRule, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) FetchBySource(ctx context.Context, ownerID, source string) (*model.RedirectRule, error) {
	args := m.Called(ctx, ownerID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) FetchByID(ctx context.Context, ownerID, id string) (*model.RedirectRule, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) Create(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	args := m.Called(ctx, rule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) Patch(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	args := m.Called(ctx, rule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedirectRule), args.Error(1)
}

func (m *MockRedirectStore) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
