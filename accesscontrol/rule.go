package accesscontrol

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var validHTTPMethods = newStringSet("*", "DELETE", "PATCH", "GET", "HEAD", "POST", "PUT")

// RuleDefinition is one declarative security rule as written in the rules
// file. Conditions maps condition names to their options; multiple entries
// are combined conjunctively.
type RuleDefinition struct {
	Endpoint   string         `json:"endpoint" yaml:"endpoint"`
	Methods    []string       `json:"methods" yaml:"methods"`
	Conditions map[string]any `json:"conditions" yaml:"conditions"`
}

// SecurityDefinitions is the root document of a rules file.
type SecurityDefinitions struct {
	Rules []RuleDefinition `json:"rules" yaml:"rules"`
}

// Rule is a compiled security rule: an endpoint pattern, the accepted HTTP
// methods and the root of the condition tree. Immutable after compilation.
type Rule struct {
	endpoint string
	pattern  glob.Glob
	methods  stringSet
	root     Condition
}

// Matches reports whether the rule applies to the endpoint and method. The
// endpoint pattern is a plain shell glob: '*' matches any run of
// characters and '?' a single character, case sensitively and with no
// special treatment of separators.
func (r *Rule) Matches(endpoint, method string) bool {
	if !r.pattern.Match(endpoint) {
		return false
	}
	return r.methods.has("*") || r.methods.has(method)
}

func (r *Rule) Endpoint() string { return r.endpoint }

func (r *Rule) Methods() []string { return r.methods.sorted() }

func (r *Rule) Describe() string { return r.root.Describe() }

// RuleSet is an ordered collection of compiled rules. It is built once and
// never mutated, so concurrent evaluations need no locking.
type RuleSet struct {
	rules        []*Rule
	inspectsBody bool
}

// Compile builds a RuleSet from declarative definitions. Compilation is
// all-or-nothing: the first invalid definition aborts the whole load and
// no partial RuleSet is produced.
func Compile(definitions []RuleDefinition) (*RuleSet, error) {
	rules := make([]*Rule, 0, len(definitions))
	inspectsBody := false
	for position, definition := range definitions {
		rule, err := compileRule(position, definition)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
		if conditionInspectsBody(rule.root) {
			inspectsBody = true
		}
	}
	return &RuleSet{rules: rules, inspectsBody: inspectsBody}, nil
}

func compileRule(position int, definition RuleDefinition) (*Rule, error) {
	if definition.Endpoint == "" {
		return nil, &RuleDefinitionError{Reason: "Missing endpoint", Rule: position, Definition: definition}
	}
	pattern, err := glob.Compile(definition.Endpoint)
	if err != nil {
		return nil, &RuleDefinitionError{
			Reason:     fmt.Sprintf("Invalid endpoint pattern '%s'", definition.Endpoint),
			Rule:       position,
			Definition: definition,
			Err:        err,
		}
	}
	if len(definition.Methods) == 0 {
		return nil, &RuleDefinitionError{Reason: "Missing HTTP methods", Rule: position, Definition: definition}
	}
	methods := make(stringSet, len(definition.Methods))
	for _, method := range definition.Methods {
		if !validHTTPMethods.has(method) {
			return nil, &RuleDefinitionError{
				Reason:     fmt.Sprintf("Not a valid HTTP method '%s'", method),
				Rule:       position,
				Definition: definition,
			}
		}
		methods.add(method)
	}
	if len(definition.Conditions) == 0 {
		return nil, &RuleDefinitionError{Reason: "Missing conditions or options", Rule: position, Definition: definition}
	}
	root, err := compileConditions(definition.Conditions)
	if err != nil {
		return nil, &RuleDefinitionError{Reason: err.Error(), Rule: position, Definition: definition, Err: err}
	}
	return &Rule{endpoint: definition.Endpoint, pattern: pattern, methods: methods, root: root}, nil
}

// compileConditions builds a rule's condition tree. A single entry becomes
// the root directly; multiple entries are wrapped in a synthetic AllOf.
func compileConditions(definitions map[string]any) (Condition, error) {
	if len(definitions) == 1 {
		for name, options := range definitions {
			return BuildCondition(name, options)
		}
	}
	children, err := buildConditionList(definitions)
	if err != nil {
		return nil, err
	}
	return NewAllOf(children), nil
}

func conditionInspectsBody(condition Condition) bool {
	if guid, ok := condition.(*OrganizationGUIDCondition); ok {
		return guid.where == InJSON
	}
	if parent, ok := condition.(combinator); ok {
		for _, child := range parent.Children() {
			if conditionInspectsBody(child) {
				return true
			}
		}
	}
	return false
}

// Decide evaluates the request against every rule that matches its
// endpoint and method. Matching is disjunctive across rules: the request
// is allowed as soon as any matching rule's condition tree passes. A
// denial carries the rendered requirements of every rule that was in play.
func (s *RuleSet) Decide(req *Request, user *UserAttributes) Decision {
	if len(s.rules) == 0 {
		return Deny("No security rules found")
	}

	var matches []*Rule
	for _, rule := range s.rules {
		if rule.Matches(req.Endpoint, req.Method) {
			matches = append(matches, rule)
		}
	}
	if len(matches) == 0 {
		return Deny(fmt.Sprintf("No rules matched endpoint %s and HTTP method %s", req.Endpoint, req.Method))
	}

	for _, rule := range matches {
		if rule.root.Test(user, req) {
			return Allow()
		}
	}

	reasons := make([]string, 0, len(matches))
	for _, rule := range matches {
		reasons = append(reasons, rule.root.Describe())
	}
	return Deny(strings.Join(reasons, "\n"))
}

func (s *RuleSet) Rules() []*Rule { return s.rules }

func (s *RuleSet) Len() int { return len(s.rules) }

// InspectsJSONBody reports whether any rule's condition tree reads the
// request body, letting callers skip body buffering otherwise.
func (s *RuleSet) InspectsJSONBody() bool { return s.inspectsBody }
