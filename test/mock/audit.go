// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/workfloworchestrator/oauth2-filter/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogDecision(ctx context.Context, decision audit.Decision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockAuditService) QueryDecisions(ctx context.Context, from, to time.Time, userName, endpoint string) ([]audit.Decision, error) {
	args := m.Called(ctx, from, to, userName, endpoint)
	return args.Get(0).([]audit.Decision), args.Error(1)
}
