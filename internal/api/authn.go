package api

import (
	"net/http"
	"strings"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

// authWhitelist lists path prefixes the authentication stage skips
// entirely. Requests to these paths never carry a principal.
var authWhitelist = []string{
	"/auth/",
	"/actuator/",
}

// authenticationMiddleware resolves the caller's identity from the
// Authorization header and binds it to the request context.
//
// A missing header is not an error: the request continues without a
// principal and the route policy decides whether that is acceptable.
// A header that is present but fails verification is treated as an
// unclassified fault and surfaces as a 500, never as a 401; clients
// holding a broken token must not learn which check rejected it.
func (s *Server) authenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range authWhitelist {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := auth.ParseToken(tokenString, s.security.JWT.Secret)
		if err != nil {
			s.logger.Error("token verification failed", "error", err, "path", r.URL.Path)
			writeDomainError(w, err)
			if s.influx != nil {
				s.influx.WriteAuthMetric("token_rejected")
			}
			return
		}

		principal := claims.Principal()
		if tag, ok := r.Context().Value(tenantTagKey{}).(*tenantTag); ok {
			tag.id = principal.TenantID
		}

		ctx := auth.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
