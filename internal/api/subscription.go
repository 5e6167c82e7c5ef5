package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/tenant"
)

// subscriptionBypassPrefixes lists path prefixes exempt from the
// subscription guard. Platform surfaces and static assets stay
// reachable for tenants whose subscription has lapsed so they can see
// why they are locked out and an administrator can unlock them.
var subscriptionBypassPrefixes = []string{
	"/auth/",
	"/actuator/",
	"/docs/",
	"/swagger",
	"/v3/api-docs",
	"/assets/",
	"/static/",
	"/admin/",
}

// subscriptionLockedBody is the exact response body for a locked
// tenant. Clients match on it byte for byte, so it is fixed here
// rather than built through the envelope encoder.
var subscriptionLockedBody = []byte(`{"message":"Subscription inactive"}`)

// subscriptionGuardMiddleware blocks requests from tenants whose
// subscription is inactive. It reads live tenant state on every
// request; a deactivation takes effect on the very next call with no
// cache window.
//
// The guard never authenticates. If the request carries no principal
// there is no tenant to check and the request passes through to the
// route policy, which owns the authentication decision.
func (s *Server) subscriptionGuardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.subscriptionBypassed(r) {
			next.ServeHTTP(w, r)
			return
		}

		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if p.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}

		if err := s.tenants.AssertActive(r.Context(), p.TenantID); err != nil {
			// An unknown tenant id counts as inactive: the check
			// fails closed rather than letting a stale token through.
			if errors.Is(err, tenant.ErrSubscriptionInactive) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write(subscriptionLockedBody) //nolint:errcheck // fixed body, nothing to recover
				return
			}
			s.logger.Error("subscription check failed", "error", err, "tenant_id", p.TenantID)
			writeInternalError(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// subscriptionBypassed reports whether the request skips the guard
// regardless of tenant state.
func (s *Server) subscriptionBypassed(r *http.Request) bool {
	// CORS preflights carry no credentials and must always succeed.
	if r.Method == http.MethodOptions {
		return true
	}
	if r.URL.Path == "/" {
		return true
	}
	for _, prefix := range subscriptionBypassPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}
