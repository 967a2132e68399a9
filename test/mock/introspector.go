// test/mock/introspector.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
)

// MockIntrospector is a mock implementation of introspect.Introspector
type MockIntrospector struct {
	mock.Mock
}

func (m *MockIntrospector) Introspect(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	args := m.Called(ctx, token)
	if claims := args.Get(0); claims != nil {
		return claims.(*accesscontrol.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}
