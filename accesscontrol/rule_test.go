package accesscontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, definitions ...RuleDefinition) *RuleSet {
	t.Helper()
	ruleSet, err := Compile(definitions)
	require.NoError(t, err)
	return ruleSet
}

func TestCompileValidation(t *testing.T) {
	valid := RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	}

	tests := []struct {
		name       string
		definition RuleDefinition
		reason     string
	}{
		{
			"missing endpoint",
			RuleDefinition{Methods: []string{"GET"}, Conditions: valid.Conditions},
			"Missing endpoint",
		},
		{
			"missing methods",
			RuleDefinition{Endpoint: "orders.*", Conditions: valid.Conditions},
			"Missing HTTP methods",
		},
		{
			"invalid method",
			RuleDefinition{Endpoint: "orders.*", Methods: []string{"FETCH"}, Conditions: valid.Conditions},
			"Not a valid HTTP method 'FETCH'",
		},
		{
			"missing conditions",
			RuleDefinition{Endpoint: "orders.*", Methods: []string{"GET"}},
			"Missing conditions or options",
		},
		{
			"invalid condition options",
			RuleDefinition{
				Endpoint:   "orders.*",
				Methods:    []string{"GET"},
				Conditions: map[string]any{NameOrganizationGUID: map[string]any{"where": "header", "parameter": "id"}},
			},
			"'where' option",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]RuleDefinition{tt.definition})
			var definitionErr *RuleDefinitionError
			require.ErrorAs(t, err, &definitionErr)
			assert.Contains(t, definitionErr.Error(), tt.reason)
		})
	}

	t.Run("error carries the rule position", func(t *testing.T) {
		_, err := Compile([]RuleDefinition{valid, {Methods: []string{"GET"}}})
		var definitionErr *RuleDefinitionError
		require.ErrorAs(t, err, &definitionErr)
		assert.Equal(t, 1, definitionErr.Rule)
		assert.Contains(t, definitionErr.Error(), "(rule 1)")
	})

	t.Run("one bad rule invalidates the whole load", func(t *testing.T) {
		ruleSet, err := Compile([]RuleDefinition{valid, {Endpoint: "x"}})
		assert.Error(t, err)
		assert.Nil(t, ruleSet)
	})
}

func TestRuleMatching(t *testing.T) {
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET", "HEAD"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	})
	rule := ruleSet.Rules()[0]

	assert.True(t, rule.Matches("orders.get", "GET"))
	assert.True(t, rule.Matches("orders.update", "HEAD"))
	assert.False(t, rule.Matches("invoices.get", "GET"))
	assert.False(t, rule.Matches("orders.get", "DELETE"))
	assert.False(t, rule.Matches("Orders.get", "GET"), "glob matching is case sensitive")
}

func TestWildcardMethod(t *testing.T) {
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint:   "orders.?",
		Methods:    []string{"*"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	})
	rule := ruleSet.Rules()[0]

	assert.True(t, rule.Matches("orders.a", "DELETE"))
	assert.False(t, rule.Matches("orders.ab", "DELETE"), "'?' matches exactly one character")
}

func TestDecideEmptyRuleSet(t *testing.T) {
	ruleSet := mustCompile(t)
	user := userWith(Claims{Scope: ScopeValue{"read"}})

	decision := ruleSet.Decide(&Request{Endpoint: "orders.get", Method: "GET"}, user)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "No security rules found", decision.Reason)
}

func TestDecideNoMatchingRule(t *testing.T) {
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	})
	user := userWith(Claims{Scope: ScopeValue{"read"}})

	decision := ruleSet.Decide(&Request{Endpoint: "invoices.get", Method: "GET"}, user)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "No rules matched endpoint invoices.get and HTTP method GET", decision.Reason)
}

func TestDecideSingleRule(t *testing.T) {
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	})

	t.Run("scope present", func(t *testing.T) {
		user := userWith(Claims{Scope: ScopeValue{"read", "write"}})
		decision := ruleSet.Decide(&Request{Endpoint: "orders.get", Method: "GET"}, user)
		assert.True(t, decision.Allowed)
	})

	t.Run("scope absent", func(t *testing.T) {
		user := userWith(Claims{Scope: ScopeValue{"write"}})
		decision := ruleSet.Decide(&Request{Endpoint: "orders.get", Method: "GET"}, user)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "read")
	})
}

func TestDecideMultipleMatchingRules(t *testing.T) {
	// Access is disjunctive across rules: any passing rule grants it.
	ruleSet := mustCompile(t,
		RuleDefinition{
			Endpoint:   "admin.delete",
			Methods:    []string{"DELETE"},
			Conditions: map[string]any{NameSABRoles: []any{"Infrabeheerder"}},
		},
		RuleDefinition{
			Endpoint:   "admin.*",
			Methods:    []string{"DELETE"},
			Conditions: map[string]any{NameTeams: []any{"noc"}},
		},
	)
	req := &Request{Endpoint: "admin.delete", Method: "DELETE"}

	t.Run("second rule grants", func(t *testing.T) {
		user := userWith(Claims{Memberships: []string{TeamURN + "noc-engineers"}})
		assert.True(t, ruleSet.Decide(req, user).Allowed)
	})

	t.Run("denial lists every candidate", func(t *testing.T) {
		user := userWith(Claims{})
		decision := ruleSet.Decide(req, user)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "Infrabeheerder")
		assert.Contains(t, decision.Reason, "noc-engineers")
	})
}

func TestDecideImplicitAllOf(t *testing.T) {
	// Two condition entries in one rule must both hold.
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint: "admin.*",
		Methods:  []string{"POST"},
		Conditions: map[string]any{
			NameSABRoles: []any{"Infrabeheerder"},
			NameTeams:    []any{"noc"},
		},
	})
	req := &Request{Endpoint: "admin.update", Method: "POST"}

	roleOnly := userWith(Claims{Entitlements: []string{RoleURN + "Infrabeheerder"}})
	decision := ruleSet.Decide(req, roleOnly)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "Infrabeheerder")
	assert.Contains(t, decision.Reason, "noc-engineers")

	both := userWith(Claims{
		Entitlements: []string{RoleURN + "Infrabeheerder"},
		Memberships:  []string{TeamURN + "noc-engineers"},
	})
	assert.True(t, ruleSet.Decide(req, both).Allowed)
}

func TestDecideOrganizationGUIDPathParameter(t *testing.T) {
	const guid = "ad93daef-0911-e511-80d0-005056956c1a"
	ruleSet := mustCompile(t, RuleDefinition{
		Endpoint: "customers.*",
		Methods:  []string{"GET"},
		Conditions: map[string]any{
			NameOrganizationGUID: map[string]any{"where": "path", "parameter": "customerId"},
		},
	})
	user := userWith(Claims{Entitlements: []string{OrganizationGUIDURN + guid}})

	owned := &Request{
		Endpoint:   "customers.get",
		Method:     "GET",
		PathParams: map[string]string{"customerId": guid},
	}
	assert.True(t, ruleSet.Decide(owned, user).Allowed)

	foreign := &Request{
		Endpoint:   "customers.get",
		Method:     "GET",
		PathParams: map[string]string{"customerId": "0000-other"},
	}
	assert.False(t, ruleSet.Decide(foreign, user).Allowed)
}

func TestInspectsJSONBody(t *testing.T) {
	withBody := mustCompile(t, RuleDefinition{
		Endpoint: "orders.*",
		Methods:  []string{"POST"},
		Conditions: map[string]any{
			NameAnyOf: map[string]any{
				NameOrganizationGUID: map[string]any{"where": "json", "parameter": "org"},
			},
		},
	})
	assert.True(t, withBody.InspectsJSONBody())

	withoutBody := mustCompile(t, RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	})
	assert.False(t, withoutBody.InspectsJSONBody())
}

func TestEvaluatorSwap(t *testing.T) {
	initial := mustCompile(t)
	evaluator := NewEvaluator(initial)
	user := userWith(Claims{Scope: ScopeValue{"read"}})
	req := &Request{Endpoint: "orders.get", Method: "GET"}

	assert.False(t, evaluator.Decide(req, user).Allowed)

	evaluator.Swap(mustCompile(t, RuleDefinition{
		Endpoint:   "orders.*",
		Methods:    []string{"GET"},
		Conditions: map[string]any{NameScopes: []any{"read"}},
	}))
	assert.True(t, evaluator.Decide(req, user).Allowed)

	// A nil swap keeps the current rule set.
	evaluator.Swap(nil)
	assert.True(t, evaluator.Decide(req, user).Allowed)
}
