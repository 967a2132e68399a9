// service/services.go
package service

import (
	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/audit"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

type Services struct {
	Authz IAuthzService
	Audit audit.Service
}

func InitializeServices(
	evaluator *accesscontrol.Evaluator,
	rulesFile string,
	auditService audit.Service,
	eventBus *util.EventBus,
) *Services {
	return &Services{
		Authz: NewAuthzService(evaluator, rulesFile, eventBus),
		Audit: auditService,
	}
}
