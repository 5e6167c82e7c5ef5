package auth

// Scope is the explicit tenant-scoping parameter for data access.
//
// Every repository read and write takes a Scope and restricts the rows
// it touches to the scope's tenant, unless the scope is unbound.
// Scoping is an explicit parameter rather than a session-wide filter
// switch: the handler cannot forget to "deactivate" anything, and a
// query without a scope argument does not compile.
type Scope struct {
	// TenantID is the tenant all data access is restricted to.
	TenantID int64

	// Unbound disables tenant restriction entirely. Only platform
	// administrators get an unbound scope.
	Unbound bool
}

// ScopeFor derives the data-access scope from a principal.
// Administrators are tenant-unbound and see all data.
func ScopeFor(p Principal) Scope {
	if p.IsAdmin() {
		return Scope{Unbound: true}
	}
	return Scope{TenantID: p.TenantID}
}

// CanAccess reports whether a row owned by tenantID is visible in this scope.
func (s Scope) CanAccess(tenantID int64) bool {
	return s.Unbound || s.TenantID == tenantID
}

// Filter returns an SQL fragment and arguments restricting a query to
// the scope's tenant. The fragment is empty for an unbound scope.
// Intended to be appended to a WHERE clause that already has at least
// one predicate:
//
//	frag, args := scope.Filter("tenant_id")
//	query := "SELECT ... WHERE id = ?" + frag
func (s Scope) Filter(column string) (string, []any) {
	if s.Unbound {
		return "", nil
	}
	return " AND " + column + " = ?", []any{s.TenantID}
}
