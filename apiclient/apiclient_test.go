// apiclient/apiclient_test.go
package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workfloworchestrator/oauth2-filter/apiclient"
	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
)

func tokenServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "service-token", "token_type": "bearer", "expires_in": 3600}`))
	}))
}

func TestTokenSource(t *testing.T) {
	server := tokenServer(t)
	defer server.Close()

	source := apiclient.NewTokenSource(context.Background(), server.URL, "client-id", "client-secret", []string{"read"})
	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "service-token", token.AccessToken)
}

func TestTokenSourceDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	source := apiclient.NewTokenSource(context.Background(), server.URL, "client-id", "wrong-secret", nil)
	_, err := source.Token()
	assert.ErrorIs(t, err, auth_errors.ErrAccessTokenRequestDenied)
}

func TestTransportAddsAuthorizationHeader(t *testing.T) {
	tokens := tokenServer(t)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	source := apiclient.NewTokenSource(context.Background(), tokens.URL, "client-id", "client-secret", nil)
	client := apiclient.NewHTTPClient(source)

	res, err := client.Get(api.URL + "/resource")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}
