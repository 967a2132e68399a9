// errors/auth_errors.go
package errors

import "errors"

var (
	ErrNoAuthorizationHeader      = errors.New("no authorization token provided")
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")
	ErrTokenInvalid               = errors.New("provided oauth2 token is not valid")
	ErrTokenInactive              = errors.New("provided oauth2 token is not active")
	ErrAuthServerTimeout          = errors.New("request timeout from authorization server")
	ErrPolicyAgentUnavailable     = errors.New("policy agent is unavailable")
	ErrInvalidRuleDefinition      = errors.New("invalid rule definition")
	ErrInvalidEvaluationRequest   = errors.New("invalid evaluation request")
	ErrInvalidPagination          = errors.New("invalid pagination parameters")
	ErrInternalServer             = errors.New("internal server error")
	ErrOpenIDConfigurationMissing = errors.New("openid configuration could not be loaded")
	ErrAccessTokenRequestDenied   = errors.New("failed to obtain client credentials token")
)
