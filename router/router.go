// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workfloworchestrator/oauth2-filter/controller"
	"github.com/workfloworchestrator/oauth2-filter/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	oauthFilter middleware.OAuthFilterConfig,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	router.Use(middleware.OAuthFilter(oauthFilter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	controllers.Authz.RegisterRoutes(api)
	controllers.Decision.RegisterRoutes(api)

	return router
}
