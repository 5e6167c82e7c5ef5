package api

import (
	"net/http"
	"strings"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

// RouteRule maps a path prefix to the roles allowed through it.
// Public marks the prefix as reachable without a principal. A nil,
// non-public Roles slice means any authenticated caller is accepted.
type RouteRule struct {
	Prefix string
	Public bool
	Roles  []auth.Role
}

// routeRules is the ordered authorisation table. Rules are evaluated
// top to bottom and the first prefix match wins, so more specific
// prefixes must appear before broader ones. Paths matching no rule
// fall through to the default: any authenticated caller.
//
// The subscription guard exempts /admin/** so a locked tenant can be
// unlocked, but that exemption grants no access here: only the ADMIN
// role passes this table's /admin/** rule.
var routeRules = []RouteRule{
	{Prefix: "/auth/", Public: true},
	{Prefix: "/actuator/", Public: true},
	{Prefix: "/admin/", Roles: []auth.Role{auth.RoleAdmin}},
	{Prefix: "/office/", Roles: []auth.Role{auth.RoleAdmin, auth.RoleBackOffice}},
	{Prefix: "/fe/", Roles: []auth.Role{auth.RoleField}},
	{Prefix: "/customer/", Roles: []auth.Role{auth.RoleCustomer}},
}

// matchRouteRule returns the first rule whose prefix matches path,
// or nil when the path falls through to the default rule.
func matchRouteRule(path string) *RouteRule {
	for i := range routeRules {
		if strings.HasPrefix(path, routeRules[i].Prefix) {
			return &routeRules[i]
		}
	}
	return nil
}

// routePolicyMiddleware enforces the role table. Requests without a
// principal on a protected prefix get 401; authenticated requests
// whose role is not in the rule's allow set get 403. There is no role
// hierarchy: ADMIN passes /fe/** only if the rule lists it, and it
// does not.
func (s *Server) routePolicyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule := matchRouteRule(r.URL.Path)
		if rule != nil && rule.Public {
			next.ServeHTTP(w, r)
			return
		}

		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			writeUnauthorized(w, "authentication required")
			return
		}

		if rule == nil || len(rule.Roles) == 0 {
			// Default rule: any authenticated caller.
			next.ServeHTTP(w, r)
			return
		}

		for _, role := range rule.Roles {
			if p.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}

		s.logger.Warn("route access denied",
			"path", r.URL.Path,
			"role", p.Role,
			"user_id", p.UserID,
		)
		writeForbidden(w, "insufficient permissions")
	})
}
