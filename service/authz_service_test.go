// service/authz_service_test.go
package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/model"
	"github.com/workfloworchestrator/oauth2-filter/service"
)

const readRules = `
rules:
  - endpoint: "/orders*"
    methods: ["GET"]
    conditions:
      Scopes: ["read"]
`

const badRules = `
rules:
  - endpoint: "/orders*"
    methods: ["FETCH"]
    conditions:
      Scopes: ["read"]
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAuthzService(t *testing.T) {
	logger.InitLogger("../logging")
	defer logger.Sync()

	ctx := context.Background()

	t.Run("Evaluate dry run", func(t *testing.T) {
		path := writeRules(t, readRules)
		evaluator := accesscontrol.NewEvaluator(nil)
		authz := service.NewAuthzService(evaluator, path, nil)
		require.NoError(t, authz.ReloadRules(ctx))

		decision := authz.Evaluate(ctx, model.EvaluationRequest{
			Claims:   accesscontrol.Claims{Scope: accesscontrol.ScopeValue{"read"}},
			Endpoint: "/orders",
			Method:   "GET",
		})
		assert.True(t, decision.Allowed)

		decision = authz.Evaluate(ctx, model.EvaluationRequest{
			Claims:   accesscontrol.Claims{Scope: accesscontrol.ScopeValue{"write"}},
			Endpoint: "/orders",
			Method:   "GET",
		})
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "read")
	})

	t.Run("DescribeRules renders the live set", func(t *testing.T) {
		path := writeRules(t, readRules)
		evaluator := accesscontrol.NewEvaluator(nil)
		authz := service.NewAuthzService(evaluator, path, nil)
		require.NoError(t, authz.ReloadRules(ctx))

		info := authz.DescribeRules(ctx)
		require.Equal(t, 1, info.RuleCount)
		assert.Equal(t, "/orders*", info.Rules[0].Endpoint)
		assert.Equal(t, []string{"GET"}, info.Rules[0].Methods)
		assert.Contains(t, info.Rules[0].Conditions, "read")
	})

	t.Run("failed reload keeps the previous rule set", func(t *testing.T) {
		path := writeRules(t, readRules)
		evaluator := accesscontrol.NewEvaluator(nil)
		authz := service.NewAuthzService(evaluator, path, nil)
		require.NoError(t, authz.ReloadRules(ctx))

		require.NoError(t, os.WriteFile(path, []byte(badRules), 0o600))
		err := authz.ReloadRules(ctx)
		var definitionErr *accesscontrol.RuleDefinitionError
		require.ErrorAs(t, err, &definitionErr)
		assert.Contains(t, definitionErr.Error(), "FETCH")

		// Previous rules stay live.
		decision := authz.Evaluate(ctx, model.EvaluationRequest{
			Claims:   accesscontrol.Claims{Scope: accesscontrol.ScopeValue{"read"}},
			Endpoint: "/orders",
			Method:   "GET",
		})
		assert.True(t, decision.Allowed)
	})

	t.Run("missing rules file", func(t *testing.T) {
		evaluator := accesscontrol.NewEvaluator(nil)
		authz := service.NewAuthzService(evaluator, filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, authz.ReloadRules(ctx))
	})
}
