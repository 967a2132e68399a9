// controller/decision_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workfloworchestrator/oauth2-filter/audit"
	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
	"github.com/workfloworchestrator/oauth2-filter/util"
	helper_util "github.com/workfloworchestrator/oauth2-filter/util/helper"
)

type DecisionController struct {
	auditService audit.Service
}

func NewDecisionController(auditService audit.Service) *DecisionController {
	return &DecisionController{
		auditService: auditService,
	}
}

// RegisterRoutes registers the API routes
func (dc *DecisionController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/decisions", dc.QueryDecisions)
}

// QueryDecisions endpoint: audit trail of past verdicts
func (dc *DecisionController) QueryDecisions(c *gin.Context) {
	to, err := helper_util.ParseTimeOrDefault(c.Query("to"), time.Now().UTC())
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp", err)
		return
	}
	from, err := helper_util.ParseTimeOrDefault(c.Query("from"), to.Add(-24*time.Hour))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp", err)
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", auth_errors.ErrInvalidPagination)
		return
	}

	decisions, err := dc.auditService.QueryDecisions(c, from, to, c.Query("user"), c.Query("endpoint"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query decisions", err)
		return
	}

	if offset > len(decisions) {
		offset = len(decisions)
	}
	end := offset + limit
	if end > len(decisions) {
		end = len(decisions)
	}
	c.JSON(http.StatusOK, decisions[offset:end])
}
