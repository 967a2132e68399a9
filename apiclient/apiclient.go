// apiclient/apiclient.go
package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
)

// TokenSource obtains and transparently refreshes a client-credentials
// access token for calls this service makes to other protected APIs.
type TokenSource struct {
	source oauth2.TokenSource
}

func NewTokenSource(ctx context.Context, tokenURL, clientID, clientSecret string, scopes []string) *TokenSource {
	config := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &TokenSource{source: config.TokenSource(ctx)}
}

// Token returns a valid access token, fetching a fresh one when the
// cached token has expired.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	token, err := ts.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth_errors.ErrAccessTokenRequestDenied, err)
	}
	return token, nil
}

// transport decorates outgoing requests with the bearer token, leaving
// the wrapped RoundTripper to do the actual call.
type transport struct {
	source *TokenSource
	next   http.RoundTripper
}

// NewTransport wraps next so every request carries an Authorization
// header with a current client-credentials token. A nil next uses
// http.DefaultTransport.
func NewTransport(source *TokenSource, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{source: source, next: next}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}

	// RoundTrippers must not mutate the original request.
	clone := req.Clone(req.Context())
	token.SetAuthHeader(clone)
	return t.next.RoundTrip(clone)
}

// NewHTTPClient returns an http.Client whose requests authenticate with
// client credentials.
func NewHTTPClient(source *TokenSource) *http.Client {
	return &http.Client{Transport: NewTransport(source, nil)}
}
