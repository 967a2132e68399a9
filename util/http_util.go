// util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

// currentUserKey is the gin context key under which the oauth filter
// stores the authenticated principal.
const currentUserKey = "currentUser"

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// SetCurrentUser stores the authenticated principal for downstream
// handlers.
func SetCurrentUser(c *gin.Context, user *accesscontrol.UserAttributes) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the principal the oauth filter authenticated for
// this request, or nil on unauthenticated (e.g. whitelisted) requests.
func CurrentUser(c *gin.Context) *accesscontrol.UserAttributes {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*accesscontrol.UserAttributes)
	if !ok {
		return nil
	}
	return user
}
