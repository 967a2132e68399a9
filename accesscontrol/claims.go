package accesscontrol

import (
	"encoding/json"
	"strings"
	"unicode"
)

// URN prefixes used by the identity provider to namespace the entitlement
// and membership claims. Attribute values are obtained by stripping these.
const (
	RoleURN             = "urn:mace:surfnet.nl:surfnet.nl:sab:role:"
	TeamURN             = "urn:collab:group:surfteams.nl:nl:surfnet:diensten:"
	OrganizationCodeURN = "urn:mace:surfnet.nl:surfnet.nl:sab:organizationCode:"
	OrganizationGUIDURN = "urn:mace:surfnet.nl:surfnet.nl:sab:organizationGUID:"
)

// Claims is the OIDC claims payload for an authenticated principal, as
// returned by token introspection. Unknown extra keys are ignored.
type Claims struct {
	Active                  bool       `json:"active"`
	AuthenticatingAuthority string     `json:"authenticating_authority,omitempty"`
	DisplayName             string     `json:"display_name,omitempty"`
	PrincipalName           string     `json:"edu_person_principal_name,omitempty"`
	Email                   string     `json:"email,omitempty"`
	UserName                *string    `json:"user_name,omitempty"`
	UnspecifiedID           *string    `json:"unspecified_id,omitempty"`
	Entitlements            []string   `json:"eduperson_entitlement,omitempty"`
	Memberships             []string   `json:"edumember_is_member_of,omitempty"`
	Scope                   ScopeValue `json:"scope,omitempty"`
}

// ScopeValue holds the granted scopes. Authorization servers return the
// scope claim either as a JSON list or as a single delimited string, so
// both forms unmarshal to the same token list.
type ScopeValue []string

func (s *ScopeValue) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = splitScopes(raw)
	return nil
}

func splitScopes(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
