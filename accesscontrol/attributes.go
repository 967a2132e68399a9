package accesscontrol

import "strings"

// UserAttributes is a read-only view over a principal's claims. The
// set-valued attributes are derived once at construction by stripping the
// URN prefixes; missing claims collapse to empty sets, never nil lookups.
type UserAttributes struct {
	claims Claims

	roles             stringSet
	teams             stringSet
	organizationCodes stringSet
	organizationGUIDs stringSet
	scopes            stringSet
}

func NewUserAttributes(claims Claims) *UserAttributes {
	return &UserAttributes{
		claims:            claims,
		roles:             stripURNPrefix(claims.Entitlements, RoleURN),
		teams:             stripURNPrefix(claims.Memberships, TeamURN),
		organizationCodes: stripURNPrefix(claims.Entitlements, OrganizationCodeURN),
		organizationGUIDs: stripURNPrefix(claims.Entitlements, OrganizationGUIDURN),
		scopes:            newStringSet(claims.Scope...),
	}
}

func stripURNPrefix(urns []string, prefix string) stringSet {
	set := make(stringSet)
	for _, urn := range urns {
		if value, ok := strings.CutPrefix(urn, prefix); ok {
			set.add(value)
		}
	}
	return set
}

func (u *UserAttributes) Active() bool { return u.claims.Active }

func (u *UserAttributes) AuthenticatingAuthority() string { return u.claims.AuthenticatingAuthority }

func (u *UserAttributes) DisplayName() string { return u.claims.DisplayName }

func (u *UserAttributes) PrincipalName() string { return u.claims.PrincipalName }

func (u *UserAttributes) Email() string { return u.claims.Email }

// UserName falls back to the unspecified_id claim when the authorization
// server does not supply user_name, and to the empty string when neither
// claim is present.
func (u *UserAttributes) UserName() string {
	if u.claims.UserName != nil {
		return *u.claims.UserName
	}
	if u.claims.UnspecifiedID != nil {
		return *u.claims.UnspecifiedID
	}
	return ""
}

func (u *UserAttributes) Roles() []string { return u.roles.sorted() }

func (u *UserAttributes) Teams() []string { return u.teams.sorted() }

func (u *UserAttributes) OrganizationCodes() []string { return u.organizationCodes.sorted() }

func (u *UserAttributes) OrganizationGUIDs() []string { return u.organizationGUIDs.sorted() }

func (u *UserAttributes) Scopes() []string { return u.scopes.sorted() }
