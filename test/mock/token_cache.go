// test/mock/token_cache.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
)

// MockTokenInfoCache is a mock implementation of introspect.TokenInfoCache
type MockTokenInfoCache struct {
	mock.Mock
}

func (m *MockTokenInfoCache) Get(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	args := m.Called(ctx, token)
	if claims := args.Get(0); claims != nil {
		return claims.(*accesscontrol.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenInfoCache) Set(ctx context.Context, token string, claims *accesscontrol.Claims, ttl time.Duration) error {
	args := m.Called(ctx, token, claims, ttl)
	return args.Error(0)
}

func (m *MockTokenInfoCache) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
