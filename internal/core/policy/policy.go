// Package policy holds the path-prefix authorization table applied after
// authentication and before any handler runs.
//
// The table is evaluated once per route when the route is registered; the
// resulting Policy is a precomputed role set, so nothing is re-derived per
// request.
package policy

import (
	"strings"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

const (
	// CompanyAdminDenied is returned to company administrators on any
	// city-portal or user-management path.
	CompanyAdminDenied = "Access denied. Company administrators cannot access city dashboards or user management functionality."
	// InsufficientPrivileges is returned for every other refusal.
	InsufficientPrivileges = "Access denied. Insufficient privileges for this resource."
)

// Rule admits the listed roles to every path starting with Prefix.
// Super-admins are admitted by every rule.
type Rule struct {
	Prefix string
	Allow  []domain.Role
}

// Table is an ordered list of rules; the first rule whose prefix matches wins.
// Paths matching no rule fall back to Default.
type Table struct {
	Rules   []Rule
	Default []domain.Role
}

// Restricted prefixes a company administrator may never reach.
var companyAdminDenyList = []string{
	"/api/city-dashboard",
	"/api/city-auth",
	"/api/city-users",
	"/api/city-permits",
	"/api/city-settings",
	"/api/admin/users",
	"/api/users",
	"/api/admin/companies",
	"/api/admin/settings",
}

// DefaultTable returns the platform's authorization table. City portal
// prefixes admit city roles only. The remaining deny-list prefixes admit
// plain company users, who are confined by tenant filters and per-route role
// checks instead. Everything else admits the company roles.
func DefaultTable() Table {
	rules := make([]Rule, 0, len(companyAdminDenyList))
	for _, prefix := range companyAdminDenyList {
		allow := []domain.Role{domain.RoleCompanyUser}
		if strings.HasPrefix(prefix, "/api/city-") {
			allow = domain.CityRoles
		}
		rules = append(rules, Rule{Prefix: prefix, Allow: allow})
	}
	return Table{Rules: rules, Default: domain.CompanyRoles}
}

// DenyList returns the company-administrator deny-list prefixes.
func DenyList() []string {
	out := make([]string, len(companyAdminDenyList))
	copy(out, companyAdminDenyList)
	return out
}

// Policy is the access decision for one route.
type Policy struct {
	prefix  string
	allowed map[domain.Role]struct{}
}

// For resolves the policy of path. Matching is a case-sensitive prefix test.
func (t Table) For(path string) Policy {
	for _, r := range t.Rules {
		if strings.HasPrefix(path, r.Prefix) {
			return newPolicy(r.Prefix, r.Allow)
		}
	}
	return newPolicy("", t.Default)
}

func newPolicy(prefix string, roles []domain.Role) Policy {
	allowed := make(map[domain.Role]struct{}, len(roles)+1)
	allowed[domain.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return Policy{prefix: prefix, allowed: allowed}
}

// Decision is the outcome of evaluating a Policy.
type Decision struct {
	Allowed bool
	Message string
}

// Decide reports whether id may proceed.
func (p Policy) Decide(id domain.Identity) Decision {
	if _, ok := p.allowed[id.Role]; ok {
		return Decision{Allowed: true}
	}
	if id.Role == domain.RoleCompanyAdmin {
		return Decision{Message: CompanyAdminDenied}
	}
	return Decision{Message: InsufficientPrivileges}
}

// Prefix returns the rule prefix the policy came from, or "" for the default.
func (p Policy) Prefix() string { return p.prefix }
