// introspect/discovery.go
package introspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
)

// OpenIDConfig is the subset of the openid-configuration document this
// filter consumes.
type OpenIDConfig struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	UserinfoEndpoint      string   `json:"userinfo_endpoint"`
	IntrospectEndpoint    string   `json:"introspect_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	ScopesSupported       []string `json:"scopes_supported"`
}

// DiscoverOpenIDConfig fetches /.well-known/openid-configuration from
// the authorization server.
func DiscoverOpenIDConfig(ctx context.Context, client *http.Client, openIDURL string) (*OpenIDConfig, error) {
	url := strings.TrimSuffix(openIDURL, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build discovery request: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth_errors.ErrOpenIDConfigurationMissing, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", auth_errors.ErrOpenIDConfigurationMissing, res.StatusCode)
	}

	var config OpenIDConfig
	if err := json.NewDecoder(res.Body).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode openid configuration: %w", err)
	}
	if config.IntrospectEndpoint == "" {
		return nil, fmt.Errorf("%w: no introspect endpoint advertised", auth_errors.ErrOpenIDConfigurationMissing)
	}
	return &config, nil
}
