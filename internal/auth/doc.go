// Package auth provides authentication and authorisation for FieldFlow Core.
//
// It implements a flat 4-role model (ADMIN, BACK_OFFICE, FE, CUSTOMER) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Stateless HS256 JWT access tokens carrying uid, tid and role claims
//   - Context-bound principals: identity travels on the request context,
//     never in package-level or goroutine-local state
//   - Explicit tenant Scope values threaded through every repository read
//
// Tenant scoping uses a "bound by default, unbound only for ADMIN" model:
// every principal except ADMIN is locked to the tenant recorded in its
// token, and an unauthenticated request resolves to a scope bound to
// tenant 0, which matches no rows.
package auth
