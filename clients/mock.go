package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, scope Scope, event string, payload any) error {
	args := m.Called(ctx, scope, event, payload)
	return args.Error(0)
}
