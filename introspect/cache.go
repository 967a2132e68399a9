// introspect/cache.go
package introspect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/db"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

// TokenInfoCache stores introspection results between requests.
type TokenInfoCache interface {
	Get(ctx context.Context, token string) (*accesscontrol.Claims, error)
	Set(ctx context.Context, token string, claims *accesscontrol.Claims, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// RedisTokenCache backs TokenInfoCache with the encrypted Redis store.
type RedisTokenCache struct{}

func (RedisTokenCache) Get(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	return db.GetCachedTokenInfo(ctx, token)
}

func (RedisTokenCache) Set(ctx context.Context, token string, claims *accesscontrol.Claims, ttl time.Duration) error {
	return db.CacheTokenInfo(ctx, token, claims, ttl)
}

func (RedisTokenCache) Delete(ctx context.Context, token string) error {
	return db.DeleteCachedTokenInfo(ctx, token)
}

// CachingIntrospector wraps another Introspector with a token info cache
// so every request does not hit the authorization server. Cache failures
// are logged and fall through to the remote call; only active tokens are
// cached, and a token reported inactive is evicted.
type CachingIntrospector struct {
	next  Introspector
	cache TokenInfoCache
	ttl   time.Duration
}

func NewCachingIntrospector(next Introspector, cache TokenInfoCache, ttl time.Duration) *CachingIntrospector {
	return &CachingIntrospector{next: next, cache: cache, ttl: ttl}
}

func (c *CachingIntrospector) Introspect(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	cached, err := c.cache.Get(ctx, token)
	if err != nil {
		logger.Warn("Token info cache lookup failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	claims, err := c.next.Introspect(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.Active {
		if err := c.cache.Set(ctx, token, claims, c.ttl); err != nil {
			logger.Warn("Failed to cache token info", zap.Error(err))
		}
	} else {
		if err := c.cache.Delete(ctx, token); err != nil {
			logger.Warn("Failed to evict inactive token info", zap.Error(err))
		}
	}
	return claims, nil
}
