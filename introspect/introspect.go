// introspect/introspect.go
package introspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

// Introspector resolves an opaque bearer token to the claims the
// authorization server associates with it.
type Introspector interface {
	Introspect(ctx context.Context, token string) (*accesscontrol.Claims, error)
}

// Client introspects tokens against an OAuth2 authorization server
// (RFC 7662). The introspection endpoint is either configured directly
// or discovered from the server's openid-configuration document; the
// resource server authenticates with basic auth.
type Client struct {
	httpClient           *http.Client
	openIDURL            string
	introspectEndpoint   string
	resourceServerID     string
	resourceServerSecret string

	mu           sync.Mutex
	openIDConfig *OpenIDConfig
}

type ClientOption func(*Client)

// WithIntrospectEndpoint skips OpenID discovery and posts straight to
// the given endpoint.
func WithIntrospectEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.introspectEndpoint = endpoint }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func NewClient(openIDURL, resourceServerID, resourceServerSecret string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient:           &http.Client{Timeout: 5 * time.Second},
		openIDURL:            openIDURL,
		resourceServerID:     resourceServerID,
		resourceServerSecret: resourceServerSecret,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Introspect posts the token to the introspection endpoint and decodes
// the claims payload. An inactive token is returned as claims with
// Active=false; deciding what to do with it is the caller's concern.
func (c *Client) Introspect(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	endpoint, err := c.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.resourceServerID, c.resourceServerSecret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Introspection request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", auth_errors.ErrAuthServerTimeout, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Debug("Check token failed", zap.Int("statusCode", res.StatusCode))
		return nil, auth_errors.ErrTokenInvalid
	}

	var claims accesscontrol.Claims
	if err := json.NewDecoder(res.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode introspection response: %w", err)
	}

	logger.Debug("Token introspected", zap.Bool("active", claims.Active))
	return &claims, nil
}

// endpoint returns the configured introspection endpoint, discovering
// it once from the openid-configuration document when necessary.
func (c *Client) endpoint(ctx context.Context) (string, error) {
	if c.introspectEndpoint != "" {
		return c.introspectEndpoint, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openIDConfig == nil {
		config, err := DiscoverOpenIDConfig(ctx, c.httpClient, c.openIDURL)
		if err != nil {
			return "", err
		}
		c.openIDConfig = config
	}
	return c.openIDConfig.IntrospectEndpoint, nil
}
