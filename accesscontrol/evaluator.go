package accesscontrol

import "sync/atomic"

// Decision is the outcome of evaluating one request. A denial carries a
// human-readable explanation of the unmet requirements.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Evaluator decides requests against the current RuleSet. The rule set is
// held behind an atomic pointer so reloads swap in a complete snapshot
// while in-flight evaluations keep the one they started with.
type Evaluator struct {
	rules atomic.Pointer[RuleSet]
}

func NewEvaluator(rules *RuleSet) *Evaluator {
	evaluator := &Evaluator{}
	if rules == nil {
		rules = &RuleSet{}
	}
	evaluator.rules.Store(rules)
	return evaluator
}

func (e *Evaluator) Decide(req *Request, user *UserAttributes) Decision {
	return e.rules.Load().Decide(req, user)
}

// Swap atomically replaces the rule set. A nil rule set is ignored so a
// failed reload can never leave the evaluator without rules.
func (e *Evaluator) Swap(rules *RuleSet) {
	if rules != nil {
		e.rules.Store(rules)
	}
}

func (e *Evaluator) RuleSet() *RuleSet { return e.rules.Load() }
