// controller/authz_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/controller"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/model"
	"github.com/workfloworchestrator/oauth2-filter/test/mock"
)

func setupRouter(authzService *mock.MockAuthzService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/")
	controller.NewAuthzController(authzService).RegisterRoutes(api)
	return router
}

func TestAuthzController(t *testing.T) {
	// Initialize logger
	logger.InitLogger("../logging")
	defer logger.Sync()

	t.Run("Decide_Allow", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		authzService.On("Evaluate", tmock.Anything, tmock.Anything).
			Return(accesscontrol.Allow())
		router := setupRouter(authzService)

		body := strings.NewReader(`{"endpoint": "/orders", "method": "GET", "claims": {"active": true, "scope": "read"}}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/decide", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var decision accesscontrol.Decision
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&decision))
		assert.True(t, decision.Allowed)
		authzService.AssertExpectations(t)
	})

	t.Run("Decide_Deny_CarriesReason", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		authzService.On("Evaluate", tmock.Anything, tmock.Anything).
			Return(accesscontrol.Deny("Scope must be one of the following: [read]"))
		router := setupRouter(authzService)

		body := strings.NewReader(`{"endpoint": "/orders", "method": "GET", "claims": {}}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/decide", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var decision accesscontrol.Decision
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&decision))
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "read")
	})

	t.Run("Decide_MissingEndpoint", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		router := setupRouter(authzService)

		body := strings.NewReader(`{"method": "GET"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/decide", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		authzService.AssertNotCalled(t, "Evaluate")
	})

	t.Run("DescribeRules_Success", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		authzService.On("DescribeRules", tmock.Anything).Return(model.RuleSetInfo{
			RuleCount: 1,
			Rules: []model.RuleDescription{
				{Endpoint: "/orders*", Methods: []string{"GET"}, Conditions: "Scope must be one of the following: [read]"},
			},
		})
		router := setupRouter(authzService)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/rules", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/orders*")
	})

	t.Run("ReloadRules_Success", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		authzService.On("ReloadRules", tmock.Anything).Return(nil)
		authzService.On("DescribeRules", tmock.Anything).Return(model.RuleSetInfo{})
		router := setupRouter(authzService)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/rules/reload", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ReloadRules_Failure_BadDefinition", func(t *testing.T) {
		authzService := new(mock.MockAuthzService)
		authzService.On("ReloadRules", tmock.Anything).Return(&accesscontrol.RuleDefinitionError{
			Reason: "Missing endpoint",
			Rule:   2,
		})
		router := setupRouter(authzService)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/rules/reload", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Missing endpoint")
	})
}
