// introspect/cache_test.go
package introspect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/introspect"
	"github.com/workfloworchestrator/oauth2-filter/test/mock"
)

func activeClaims() *accesscontrol.Claims {
	name := "jdoe"
	return &accesscontrol.Claims{Active: true, UserName: &name}
}

func TestCachingIntrospector(t *testing.T) {
	const token = "token123"
	const ttl = time.Minute

	t.Run("cache hit skips the authorization server", func(t *testing.T) {
		cache := new(mock.MockTokenInfoCache)
		cache.On("Get", tmock.Anything, token).Return(activeClaims(), nil)
		next := new(mock.MockIntrospector)

		introspector := introspect.NewCachingIntrospector(next, cache, ttl)
		claims, err := introspector.Introspect(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, claims.Active)
		next.AssertNotCalled(t, "Introspect")
	})

	t.Run("cache miss stores an active token", func(t *testing.T) {
		cache := new(mock.MockTokenInfoCache)
		cache.On("Get", tmock.Anything, token).Return(nil, nil)
		cache.On("Set", tmock.Anything, token, tmock.Anything, ttl).Return(nil)
		next := new(mock.MockIntrospector)
		next.On("Introspect", tmock.Anything, token).Return(activeClaims(), nil)

		introspector := introspect.NewCachingIntrospector(next, cache, ttl)
		claims, err := introspector.Introspect(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, claims.Active)
		cache.AssertExpectations(t)
	})

	t.Run("inactive token is evicted from the cache", func(t *testing.T) {
		cache := new(mock.MockTokenInfoCache)
		cache.On("Get", tmock.Anything, token).Return(nil, nil)
		cache.On("Delete", tmock.Anything, token).Return(nil)
		next := new(mock.MockIntrospector)
		next.On("Introspect", tmock.Anything, token).Return(&accesscontrol.Claims{Active: false}, nil)

		introspector := introspect.NewCachingIntrospector(next, cache, ttl)
		claims, err := introspector.Introspect(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, claims.Active)
		cache.AssertExpectations(t)
		cache.AssertNotCalled(t, "Set")
	})

	t.Run("cache lookup failure falls through to the server", func(t *testing.T) {
		cache := new(mock.MockTokenInfoCache)
		cache.On("Get", tmock.Anything, token).Return(nil, errors.New("redis down"))
		cache.On("Set", tmock.Anything, token, tmock.Anything, ttl).Return(nil)
		next := new(mock.MockIntrospector)
		next.On("Introspect", tmock.Anything, token).Return(activeClaims(), nil)

		introspector := introspect.NewCachingIntrospector(next, cache, ttl)
		claims, err := introspector.Introspect(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, claims.Active)
		next.AssertExpectations(t)
	})

	t.Run("introspection failure is not cached", func(t *testing.T) {
		cache := new(mock.MockTokenInfoCache)
		cache.On("Get", tmock.Anything, token).Return(nil, nil)
		next := new(mock.MockIntrospector)
		next.On("Introspect", tmock.Anything, token).Return(nil, errors.New("server error"))

		introspector := introspect.NewCachingIntrospector(next, cache, ttl)
		_, err := introspector.Introspect(context.Background(), token)
		require.Error(t, err)
		cache.AssertNotCalled(t, "Set")
		cache.AssertNotCalled(t, "Delete")
	})
}
