package accesscontrol

import (
	"fmt"
	"sort"
)

// Condition names accepted in rule definitions.
const (
	NameSABRoles            = "SABRoles"
	NameTeams               = "Teams"
	NameTargetOrganizations = "TargetOrganizations"
	NameScopes              = "Scopes"
	NameOrganizationGUID    = "OrganizationGUID"
	NameAnyOf               = "AnyOf"
	NameAllOf               = "AllOf"
)

type conditionConstructor func(options any) (Condition, error)

// conditionRegistry is the closed set of condition kinds. Adding a kind
// means adding a constructor entry here. Populated in init because the
// combinator constructors recurse through BuildCondition, which reads
// the registry back.
var conditionRegistry map[string]conditionConstructor

func init() {
	conditionRegistry = map[string]conditionConstructor{
		NameSABRoles: func(options any) (Condition, error) {
			names, err := stringListOption(NameSABRoles, options)
			if err != nil {
				return nil, err
			}
			return NewRoleCondition(names)
		},
		NameTeams: func(options any) (Condition, error) {
			names, err := stringListOption(NameTeams, options)
			if err != nil {
				return nil, err
			}
			return NewTeamCondition(names)
		},
		NameTargetOrganizations: func(options any) (Condition, error) {
			groups, err := stringListOption(NameTargetOrganizations, options)
			if err != nil {
				return nil, err
			}
			return NewOrganizationCodeCondition(groups)
		},
		NameScopes: func(options any) (Condition, error) {
			scopes, err := stringListOption(NameScopes, options)
			if err != nil {
				return nil, err
			}
			return NewScopeCondition(scopes)
		},
		NameOrganizationGUID: func(options any) (Condition, error) {
			settings, err := mappingOption(NameOrganizationGUID, options)
			if err != nil {
				return nil, err
			}
			where, err := stringSetting(NameOrganizationGUID, settings, "where")
			if err != nil {
				return nil, err
			}
			parameter, err := stringSetting(NameOrganizationGUID, settings, "parameter")
			if err != nil {
				return nil, err
			}
			return NewOrganizationGUIDCondition(ParameterLocation(where), parameter)
		},
		NameAnyOf: func(options any) (Condition, error) {
			children, err := buildChildConditions(NameAnyOf, options)
			if err != nil {
				return nil, err
			}
			return NewAnyOf(children), nil
		},
		NameAllOf: func(options any) (Condition, error) {
			children, err := buildChildConditions(NameAllOf, options)
			if err != nil {
				return nil, err
			}
			return NewAllOf(children), nil
		},
	}
}

// BuildCondition constructs the condition registered under name from its
// declarative options. Unknown names and malformed options yield an
// InvalidConditionError.
func BuildCondition(name string, options any) (Condition, error) {
	constructor, ok := conditionRegistry[name]
	if !ok {
		return nil, &InvalidConditionError{Condition: name, Reason: "unknown condition"}
	}
	return constructor(options)
}

// buildConditionList builds one condition per entry of a name to options
// mapping. Entries are built in sorted name order so rendered descriptions
// are stable; the boolean semantics do not depend on the order.
func buildConditionList(definitions map[string]any) ([]Condition, error) {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	conditions := make([]Condition, 0, len(names))
	for _, name := range names {
		condition, err := BuildCondition(name, definitions[name])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}
	return conditions, nil
}

func buildChildConditions(name string, options any) ([]Condition, error) {
	definitions, err := mappingOption(name, options)
	if err != nil {
		return nil, err
	}
	return buildConditionList(definitions)
}

func stringListOption(name string, options any) ([]string, error) {
	switch list := options.(type) {
	case []string:
		return list, nil
	case []any:
		values := make([]string, 0, len(list))
		for _, item := range list {
			value, ok := item.(string)
			if !ok {
				return nil, &InvalidConditionError{Condition: name, Reason: fmt.Sprintf("options should be a list of strings, got element %v", item)}
			}
			values = append(values, value)
		}
		return values, nil
	default:
		return nil, &InvalidConditionError{Condition: name, Reason: fmt.Sprintf("options should be a list of strings, got %T", options)}
	}
}

func mappingOption(name string, options any) (map[string]any, error) {
	mapping, ok := options.(map[string]any)
	if !ok {
		return nil, &InvalidConditionError{Condition: name, Reason: fmt.Sprintf("options should be a mapping, got %T", options)}
	}
	return mapping, nil
}

func stringSetting(name string, settings map[string]any, key string) (string, error) {
	raw, ok := settings[key]
	if !ok {
		return "", &InvalidConditionError{Condition: name, Option: key, Reason: fmt.Sprintf("missing option %q", key)}
	}
	value, ok := raw.(string)
	if !ok {
		return "", &InvalidConditionError{Condition: name, Option: key, Reason: fmt.Sprintf("option %q should be a string, got %T", key, raw)}
	}
	return value, nil
}
