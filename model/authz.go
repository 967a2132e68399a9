// model/authz.go
package model

import "github.com/workfloworchestrator/oauth2-filter/accesscontrol"

// EvaluationRequest is the operator-facing dry-run input: the claims a
// principal would present plus the request being probed.
type EvaluationRequest struct {
	Claims      accesscontrol.Claims `json:"claims"`
	Endpoint    string               `json:"endpoint" binding:"required"`
	Method      string               `json:"method" binding:"required"`
	PathParams  map[string]string    `json:"path_params,omitempty"`
	QueryParams map[string]string    `json:"query_params,omitempty"`
	Body        string               `json:"body,omitempty"`
}

// RuleDescription is the operator-facing rendering of one compiled
// rule.
type RuleDescription struct {
	Endpoint   string   `json:"endpoint"`
	Methods    []string `json:"methods"`
	Conditions string   `json:"conditions"`
}

// RuleSetInfo summarizes the live rule set.
type RuleSetInfo struct {
	RuleCount int               `json:"rule_count"`
	Rules     []RuleDescription `json:"rules"`
}
