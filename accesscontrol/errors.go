package accesscontrol

import "fmt"

// InvalidConditionError reports a condition definition that references an
// unknown condition name or carries missing or invalid options.
type InvalidConditionError struct {
	Condition string
	Option    string
	Reason    string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Condition, e.Reason)
}

// RuleDefinitionError reports an invalid declarative rule. It carries the
// rule's position and raw definition so operators can locate the faulty
// entry in the configuration.
type RuleDefinitionError struct {
	Reason     string
	Rule       int
	Definition RuleDefinition
	Err        error
}

func (e *RuleDefinitionError) Error() string {
	return fmt.Sprintf("%s (rule %d):\n%+v", e.Reason, e.Rule, e.Definition)
}

func (e *RuleDefinitionError) Unwrap() error { return e.Err }
