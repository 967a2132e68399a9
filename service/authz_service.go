// service/authz_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/config"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/model"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

// RulesReloadedEvent is published after a successful rule-set swap.
const RulesReloadedEvent = "ruleset.reloaded"

type IAuthzService interface {
	Evaluate(ctx context.Context, request model.EvaluationRequest) accesscontrol.Decision
	DescribeRules(ctx context.Context) model.RuleSetInfo
	ReloadRules(ctx context.Context) error
}

type AuthzService struct {
	evaluator *accesscontrol.Evaluator
	rulesFile string
	eventBus  *util.EventBus
}

func NewAuthzService(evaluator *accesscontrol.Evaluator, rulesFile string, eventBus *util.EventBus) *AuthzService {
	return &AuthzService{
		evaluator: evaluator,
		rulesFile: rulesFile,
		eventBus:  eventBus,
	}
}

// Evaluate renders a dry-run verdict for the given claims and request
// descriptor without touching the live request path.
func (s *AuthzService) Evaluate(_ context.Context, request model.EvaluationRequest) accesscontrol.Decision {
	user := accesscontrol.NewUserAttributes(request.Claims)
	req := &accesscontrol.Request{
		Endpoint:    request.Endpoint,
		Method:      request.Method,
		PathParams:  request.PathParams,
		QueryParams: request.QueryParams,
		Body:        []byte(request.Body),
	}
	return s.evaluator.Decide(req, user)
}

// DescribeRules renders the live rule set for operators.
func (s *AuthzService) DescribeRules(_ context.Context) model.RuleSetInfo {
	rules := s.evaluator.RuleSet().Rules()
	descriptions := make([]model.RuleDescription, 0, len(rules))
	for _, rule := range rules {
		descriptions = append(descriptions, model.RuleDescription{
			Endpoint:   rule.Endpoint(),
			Methods:    rule.Methods(),
			Conditions: rule.Describe(),
		})
	}
	return model.RuleSetInfo{RuleCount: len(rules), Rules: descriptions}
}

// ReloadRules recompiles the rules file and swaps the result in
// atomically. A failed compile leaves the previous rule set live.
func (s *AuthzService) ReloadRules(ctx context.Context) error {
	ruleSet, err := config.LoadRuleSet(s.rulesFile)
	if err != nil {
		logger.Error("Rules reload failed, keeping previous rule set",
			zap.String("file", s.rulesFile),
			zap.Error(err))
		return fmt.Errorf("failed to reload rules from %s: %w", s.rulesFile, err)
	}

	s.evaluator.Swap(ruleSet)
	logger.Info("Rules reloaded",
		zap.String("file", s.rulesFile),
		zap.Int("ruleCount", ruleSet.Len()))

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, RulesReloadedEvent, ruleSet.Len())
	}
	return nil
}
