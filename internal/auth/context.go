package auth

import "context"

// principalKey is a private context key type to avoid collisions.
type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
//
// The principal is set exactly once per request, by the authentication
// stage, before any handler code runs. Because it lives on the
// request's context tree rather than in any worker-scoped storage, a
// later request served by the same goroutine starts from an empty
// context: there is no clear step to forget and no way for one
// caller's tenant to leak into the next request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated principal for the request,
// if one was established. The second return is false for
// unauthenticated requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ScopeFrom derives the tenant scope for data access from the request
// context. Unauthenticated requests get the zero scope, which is bound
// to tenant 0 and therefore matches no rows: data access fails closed.
func ScopeFrom(ctx context.Context) Scope {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return Scope{}
	}
	return ScopeFor(p)
}
