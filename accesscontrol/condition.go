package accesscontrol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Condition is a predicate over a principal's attributes and the current
// request. Implementations are immutable after construction and free of
// side effects, so combinators may short-circuit and evaluations may run
// concurrently against shared condition trees.
type Condition interface {
	Test(user *UserAttributes, req *Request) bool
	Describe() string
}

// combinator is implemented by conditions composed of child conditions.
type combinator interface {
	Children() []Condition
}

type stringSet map[string]struct{}

func newStringSet(values ...string) stringSet {
	set := make(stringSet, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func (s stringSet) add(value string) { s[value] = struct{}{} }

func (s stringSet) has(value string) bool {
	_, ok := s[value]
	return ok
}

func (s stringSet) intersects(other stringSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for value := range small {
		if large.has(value) {
			return true
		}
	}
	return false
}

func (s stringSet) sorted() []string {
	values := make([]string, 0, len(s))
	for value := range s {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// Canonical SAB role names with the spellings accepted in rule files.
var roleAliases = map[string]string{
	"infrabeheerder":         "Infrabeheerder",
	"Infrabeheerder":         "Infrabeheerder",
	"infraverantwoordelijke": "Infraverantwoordelijke",
	"Infraverantwoordelijke": "Infraverantwoordelijke",
	"SuperuserRO":            "SuperuserRO",
	"superuserro":            "SuperuserRO",
}

// Canonical team names with the spellings accepted in rule files.
var teamAliases = map[string]string{
	"admins":               "automation-admins",
	"automation-admins":    "automation-admins",
	"automation-read-only": "automation-read-only",
	"customersupport":      "customersupport",
	"fls":                  "noc-fls",
	"klantsupport":         "customersupport",
	"lir":                  "network-lir",
	"network-changes":      "network-changes",
	"network-lir":          "network-lir",
	"noc":                  "noc-engineers",
	"noc-engineers":        "noc-engineers",
	"noc-fls":              "noc-fls",
	"readonly":             "automation-read-only",
	"superuserro":          "noc_superuserro_team_for_netwerkdashboard",
	"support":              "customersupport",
	"ten":                  "ten",
}

// Named organization code groups. Rule files reference the group names;
// the member codes are unioned at build time.
var organizationCodeGroups = map[string][]string{
	"institutions":           {"1", "2", "3", "4", "9", "14", "18", "19", "22", "23", "24"},
	"service_providers":      {"11", "26"},
	"international_partners": {"13"},
	"colo_providers":         {"6", "10"},
	"other":                  {"5", "7", "8", "11", "12", "15", "16", "17", "20", "21", "25", "27", "28", "29", "30", "31", "32", "100"},
}

// RoleCondition passes when the principal holds at least one of the
// required SAB roles.
type RoleCondition struct {
	roles stringSet
}

func NewRoleCondition(names []string) (*RoleCondition, error) {
	if len(names) == 0 {
		return nil, &InvalidConditionError{Condition: NameSABRoles, Reason: "requires a non-empty list of roles"}
	}
	roles := make(stringSet, len(names))
	for _, name := range names {
		canonical, ok := roleAliases[name]
		if !ok {
			return nil, &InvalidConditionError{Condition: NameSABRoles, Option: name, Reason: fmt.Sprintf("unknown role %q", name)}
		}
		roles.add(canonical)
	}
	return &RoleCondition{roles: roles}, nil
}

func (c *RoleCondition) Test(user *UserAttributes, _ *Request) bool {
	return user.roles.intersects(c.roles)
}

func (c *RoleCondition) Describe() string {
	return fmt.Sprintf("ROLE in %sROLE in eduperson_entitlements should be one of %v", RoleURN, c.roles.sorted())
}

// TeamCondition passes when the principal is a member of at least one of
// the required teams.
type TeamCondition struct {
	teams stringSet
}

func NewTeamCondition(names []string) (*TeamCondition, error) {
	if len(names) == 0 {
		return nil, &InvalidConditionError{Condition: NameTeams, Reason: "requires a non-empty list of teams"}
	}
	teams := make(stringSet, len(names))
	for _, name := range names {
		canonical, ok := teamAliases[name]
		if !ok {
			return nil, &InvalidConditionError{Condition: NameTeams, Option: name, Reason: fmt.Sprintf("unknown team %q", name)}
		}
		teams.add(canonical)
	}
	return &TeamCondition{teams: teams}, nil
}

func (c *TeamCondition) Test(user *UserAttributes, _ *Request) bool {
	return user.teams.intersects(c.teams)
}

func (c *TeamCondition) Describe() string {
	return fmt.Sprintf("TEAM in %sTEAM should be one of %v", TeamURN, c.teams.sorted())
}

// OrganizationCodeCondition passes when the principal belongs to an
// organization whose code is in one of the named groups.
type OrganizationCodeCondition struct {
	codes stringSet
}

func NewOrganizationCodeCondition(groups []string) (*OrganizationCodeCondition, error) {
	if len(groups) == 0 {
		return nil, &InvalidConditionError{Condition: NameTargetOrganizations, Reason: "requires a non-empty list of organization groups"}
	}
	codes := make(stringSet)
	for _, group := range groups {
		members, ok := organizationCodeGroups[group]
		if !ok {
			return nil, &InvalidConditionError{Condition: NameTargetOrganizations, Option: group, Reason: fmt.Sprintf("unknown organization group %q", group)}
		}
		for _, code := range members {
			codes.add(code)
		}
	}
	return &OrganizationCodeCondition{codes: codes}, nil
}

func (c *OrganizationCodeCondition) Test(user *UserAttributes, _ *Request) bool {
	return user.organizationCodes.intersects(c.codes)
}

func (c *OrganizationCodeCondition) Describe() string {
	codes := c.codes.sorted()
	sort.Slice(codes, func(i, j int) bool {
		a, _ := strconv.Atoi(codes[i])
		b, _ := strconv.Atoi(codes[j])
		return a < b
	})
	return fmt.Sprintf("CODE in %sCODE in eduperson_entitlements should be one of %v", OrganizationCodeURN, codes)
}

// ScopeCondition passes when the token carries at least one of the
// required scopes.
type ScopeCondition struct {
	scopes stringSet
}

func NewScopeCondition(scopes []string) (*ScopeCondition, error) {
	if len(scopes) == 0 {
		return nil, &InvalidConditionError{Condition: NameScopes, Reason: "requires a non-empty list of scopes"}
	}
	return &ScopeCondition{scopes: newStringSet(scopes...)}, nil
}

func (c *ScopeCondition) Test(user *UserAttributes, _ *Request) bool {
	return user.scopes.intersects(c.scopes)
}

func (c *ScopeCondition) Describe() string {
	return fmt.Sprintf("Scope must be one of the following: %v", c.scopes.sorted())
}

// OrganizationGUIDCondition passes when a named request parameter equals
// one of the principal's organization GUIDs. When the parameter lives in
// the JSON body and the body is absent or malformed the condition passes,
// deferring bad-request handling to the application.
type OrganizationGUIDCondition struct {
	where ParameterLocation
	param string
}

func NewOrganizationGUIDCondition(where ParameterLocation, parameter string) (*OrganizationGUIDCondition, error) {
	switch where {
	case InPath, InQuery, InJSON:
	default:
		return nil, &InvalidConditionError{
			Condition: NameOrganizationGUID,
			Option:    "where",
			Reason:    fmt.Sprintf("the 'where' option should be one of [%s %s %s], got %q", InJSON, InPath, InQuery, where),
		}
	}
	if parameter == "" {
		return nil, &InvalidConditionError{Condition: NameOrganizationGUID, Option: "parameter", Reason: "missing option 'parameter'"}
	}
	return &OrganizationGUIDCondition{where: where, param: parameter}, nil
}

func (c *OrganizationGUIDCondition) Test(user *UserAttributes, req *Request) bool {
	switch c.where {
	case InPath:
		value, ok := req.PathParams[c.param]
		return ok && user.organizationGUIDs.has(value)
	case InQuery:
		value, ok := req.QueryParams[c.param]
		return ok && user.organizationGUIDs.has(value)
	case InJSON:
		document, ok := req.jsonDocument()
		if !ok {
			// Let the application handle the bad json request.
			return true
		}
		value, ok := document[c.param].(string)
		return ok && user.organizationGUIDs.has(value)
	}
	return false
}

func (c *OrganizationGUIDCondition) Describe() string {
	return fmt.Sprintf("Parameter %s in the request %s should be in your organization GUID ('%s')", c.param, c.where, OrganizationGUIDURN)
}

// AnyOf passes when at least one child passes. An AnyOf without children
// never passes.
type AnyOf struct {
	children []Condition
}

func NewAnyOf(children []Condition) *AnyOf {
	return &AnyOf{children: children}
}

func (c *AnyOf) Test(user *UserAttributes, req *Request) bool {
	for _, child := range c.children {
		if child.Test(user, req) {
			return true
		}
	}
	return false
}

func (c *AnyOf) Describe() string {
	return "Any of the following conditions should apply:\n" + describeChildren(c.children)
}

func (c *AnyOf) Children() []Condition { return c.children }

// AllOf passes when no child fails. An AllOf without children always
// passes.
type AllOf struct {
	children []Condition
}

func NewAllOf(children []Condition) *AllOf {
	return &AllOf{children: children}
}

func (c *AllOf) Test(user *UserAttributes, req *Request) bool {
	for _, child := range c.children {
		if !child.Test(user, req) {
			return false
		}
	}
	return true
}

func (c *AllOf) Describe() string {
	return "All of the following conditions should apply:\n" + describeChildren(c.children)
}

func (c *AllOf) Children() []Condition { return c.children }

func describeChildren(children []Condition) string {
	descriptions := make([]string, 0, len(children))
	for _, child := range children {
		descriptions = append(descriptions, child.Describe())
	}
	return strings.Join(descriptions, "\n")
}
