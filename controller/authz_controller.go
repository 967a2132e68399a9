// controller/authz_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
	"github.com/workfloworchestrator/oauth2-filter/model"
	"github.com/workfloworchestrator/oauth2-filter/service"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

type AuthzController struct {
	authzService service.IAuthzService
}

func NewAuthzController(authzService service.IAuthzService) *AuthzController {
	return &AuthzController{
		authzService: authzService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuthzController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/decide", ac.Decide)
	rules := r.Group("/rules")
	{
		rules.GET("", ac.DescribeRules)
		rules.POST("/reload", ac.ReloadRules)
	}
}

// Decide endpoint: dry-run evaluation of claims against the live rules
func (ac *AuthzController) Decide(c *gin.Context) {
	var request model.EvaluationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid evaluation request", auth_errors.ErrInvalidEvaluationRequest)
		return
	}

	decision := ac.authzService.Evaluate(c, request)
	c.JSON(http.StatusOK, decision)
}

// DescribeRules endpoint
func (ac *AuthzController) DescribeRules(c *gin.Context) {
	c.JSON(http.StatusOK, ac.authzService.DescribeRules(c))
}

// ReloadRules endpoint
func (ac *AuthzController) ReloadRules(c *gin.Context) {
	if err := ac.authzService.ReloadRules(c); err != nil {
		var definitionErr *accesscontrol.RuleDefinitionError
		if errors.As(err, &definitionErr) {
			util.RespondWithError(c, http.StatusUnprocessableEntity, definitionErr.Error(), err)
			return
		}
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to reload rules", err)
		return
	}

	c.JSON(http.StatusOK, ac.authzService.DescribeRules(c))
}
