// middleware/oauth_filter.go

package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/audit"
	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
	"github.com/workfloworchestrator/oauth2-filter/introspect"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/opa"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

// OAuthFilterConfig wires the collaborators of the authorization
// filter. Introspector and Evaluator are required; PolicyAgent and
// EventBus are optional.
type OAuthFilterConfig struct {
	Introspector    introspect.Introspector
	Evaluator       *accesscontrol.Evaluator
	PolicyAgent     *opa.Client
	EventBus        *util.EventBus
	WhiteListedURLs []string
	AllowLocalhost  bool
}

// OAuthFilter authenticates the bearer token of every request via
// token introspection and authorizes the request against the compiled
// security rules. Whitelisted endpoints, CORS preflights and, when
// enabled, localhost health checks pass through unauthenticated.
func OAuthFilter(cfg OAuthFilterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := endpointIdentifier(c)

		for _, url := range cfg.WhiteListedURLs {
			if strings.HasSuffix(endpoint, url) {
				c.Next()
				return
			}
		}

		// Allow Cross-Origin Resource Sharing calls
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			// Allow local host calls for health checks
			if cfg.AllowLocalhost && isLocalhost(c.Request) {
				c.Next()
				return
			}
			logger.Debug("No Authorization header found", zap.String("endpoint", endpoint))
			util.RespondWithError(c, http.StatusUnauthorized, "No Authorization token provided", auth_errors.ErrNoAuthorizationHeader)
			c.Abort()
			return
		}

		token, ok := bearerToken(authorization)
		if !ok {
			logger.Debug("Invalid authorization header", zap.String("endpoint", endpoint))
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header", auth_errors.ErrInvalidAuthorizationHeader)
			c.Abort()
			return
		}

		claims, err := cfg.Introspector.Introspect(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth_errors.ErrTokenInvalid):
				util.RespondWithError(c, http.StatusUnauthorized, "Provided oauth2 token is not valid", err)
			case errors.Is(err, auth_errors.ErrAuthServerTimeout):
				util.RespondWithError(c, http.StatusServiceUnavailable, "Authorization server is unavailable", err)
			default:
				util.RespondWithError(c, http.StatusInternalServerError, "Token introspection failed", err)
			}
			c.Abort()
			return
		}

		if !claims.Active {
			util.RespondWithError(c, http.StatusUnauthorized, "Provided oauth2 token is not active", auth_errors.ErrTokenInactive)
			c.Abort()
			return
		}

		user := accesscontrol.NewUserAttributes(*claims)

		if cfg.PolicyAgent != nil && !consultPolicyAgent(c, cfg.PolicyAgent, claims, endpoint) {
			return
		}

		req := &accesscontrol.Request{
			Endpoint:    endpoint,
			Method:      c.Request.Method,
			PathParams:  pathParams(c),
			QueryParams: queryParams(c),
		}
		if cfg.Evaluator.RuleSet().InspectsJSONBody() {
			req.Body = bufferBody(c)
		}

		decision := cfg.Evaluator.Decide(req, user)
		publishDecision(c, cfg.EventBus, user, req, decision)

		if !decision.Allowed {
			logger.Debug("Request denied",
				zap.String("endpoint", endpoint),
				zap.String("method", c.Request.Method),
				zap.String("user", user.UserName()))
			c.JSON(http.StatusForbidden, gin.H{"error": decision.Reason})
			c.Abort()
			return
		}

		util.SetCurrentUser(c, user)
		c.Next()
	}
}

// endpointIdentifier is the route pattern when the request matched a
// registered route, the raw URL path otherwise.
func endpointIdentifier(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

func bearerToken(authorization string) (string, bool) {
	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func isLocalhost(r *http.Request) bool {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func pathParams(c *gin.Context) map[string]string {
	params := make(map[string]string, len(c.Params))
	for _, param := range c.Params {
		params[param.Key] = param.Value
	}
	return params
}

func queryParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}

// bufferBody reads the request body and restores it so the handler can
// still bind it. Only called when a rule actually inspects the body.
func bufferBody(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Warn("Failed to read request body", zap.Error(err))
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// consultPolicyAgent delegates the decision to the external policy
// agent. Returns false when the request was aborted.
func consultPolicyAgent(c *gin.Context, agent *opa.Client, claims *accesscontrol.Claims, endpoint string) bool {
	input := map[string]any{
		"resource": c.Request.URL.Path,
		"method":   c.Request.Method,
		"endpoint": endpoint,
		"active":   claims.Active,
		"scope":    []string(claims.Scope),
	}

	result, err := agent.Decide(c.Request.Context(), input)
	if err != nil {
		util.RespondWithError(c, http.StatusServiceUnavailable, "Policy agent is unavailable", err)
		c.Abort()
		return false
	}
	if !result.Result {
		logger.Debug("Policy agent denied request",
			zap.String("decisionID", result.DecisionID),
			zap.String("resource", c.Request.URL.Path))
		c.JSON(http.StatusForbidden, gin.H{
			"error":       "User is not allowed to access resource: " + c.Request.URL.Path,
			"decision_id": result.DecisionID,
		})
		c.Abort()
		return false
	}
	return true
}

func publishDecision(c *gin.Context, bus *util.EventBus, user *accesscontrol.UserAttributes, req *accesscontrol.Request, decision accesscontrol.Decision) {
	if bus == nil {
		return
	}
	// Handlers run asynchronously and may outlive the request; publish
	// with a context that survives request cancellation.
	bus.Publish(context.WithoutCancel(c.Request.Context()), audit.DecisionEvent, audit.Decision{
		DecisionID: uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		UserName:   user.UserName(),
		Endpoint:   req.Endpoint,
		Method:     req.Method,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
	})
}
