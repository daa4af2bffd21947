package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mongorelay/internal/proxy"
)

// MockProxyService is a mock implementation of proxy.Service
type MockProxyService struct {
	mock.Mock
}

func (m *MockProxyService) Execute(ctx context.Context, req *proxy.Request, database string) (interface{}, error) {
	args := m.Called(ctx, req, database)
	return args.Get(0), args.Error(1)
}
