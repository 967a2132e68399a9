// controller/controllers.go
package controller

import "github.com/workfloworchestrator/oauth2-filter/service"

type Controllers struct {
	Authz    *AuthzController
	Decision *DecisionController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Authz:    NewAuthzController(services.Authz),
		Decision: NewDecisionController(services.Audit),
	}
}
