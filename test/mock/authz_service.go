// test/mock/authz_service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/model"
)

// MockAuthzService is a mock implementation of service.IAuthzService
type MockAuthzService struct {
	mock.Mock
}

func (m *MockAuthzService) Evaluate(ctx context.Context, request model.EvaluationRequest) accesscontrol.Decision {
	args := m.Called(ctx, request)
	return args.Get(0).(accesscontrol.Decision)
}

func (m *MockAuthzService) DescribeRules(ctx context.Context) model.RuleSetInfo {
	args := m.Called(ctx)
	return args.Get(0).(model.RuleSetInfo)
}

func (m *MockAuthzService) ReloadRules(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
