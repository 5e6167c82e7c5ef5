package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

func TestSubscriptionGuard_LockedTenantExactBody(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)

	if err := ts.server.tenants.SetSubscriptionActive(context.Background(), tn.ID, false); err != nil {
		t.Fatalf("deactivating tenant: %v", err)
	}

	rec := ts.request(t, http.MethodGet, "/office/invoices", ts.token(t, user), nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	want := `{"message":"Subscription inactive"}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestSubscriptionGuard_ReactivationTakesEffectImmediately(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)
	token := ts.token(t, user)

	if err := ts.server.tenants.SetSubscriptionActive(context.Background(), tn.ID, false); err != nil {
		t.Fatalf("deactivating tenant: %v", err)
	}
	if rec := ts.request(t, http.MethodGet, "/office/invoices", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("locked tenant status = %d, want 403", rec.Code)
	}

	if err := ts.server.tenants.SetSubscriptionActive(context.Background(), tn.ID, true); err != nil {
		t.Fatalf("reactivating tenant: %v", err)
	}
	if rec := ts.request(t, http.MethodGet, "/office/invoices", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("reactivated tenant status = %d, want 200", rec.Code)
	}
}

// A locked tenant's user reaches /admin/** paths without the guard
// blocking them, but the role table still refuses entry. The bypass
// exists so administrators can unlock tenants, not to widen access.
func TestSubscriptionGuard_AdminPathBypassGrantsNoAccess(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)

	if err := ts.server.tenants.SetSubscriptionActive(context.Background(), tn.ID, false); err != nil {
		t.Fatalf("deactivating tenant: %v", err)
	}

	rec := ts.request(t, http.MethodGet, "/admin/tenants", ts.token(t, user), nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != CodeForbidden {
		t.Errorf("error code = %q, want %q", env.Error, CodeForbidden)
	}
	if rec.Body.String() == `{"message":"Subscription inactive"}` {
		t.Error("request was blocked by the subscription guard, not the route policy")
	}
}

func TestSubscriptionGuard_AdminPrincipalBypassesEverywhere(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "root", auth.RoleAdmin, 0)

	rec := ts.request(t, http.MethodGet, "/office/reports", ts.token(t, admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestSubscriptionGuard_UnknownTenantFailsClosed(t *testing.T) {
	ts := newTestServer(t)
	user := &auth.User{ID: 99, TenantID: 424242, Role: auth.RoleBackOffice}

	rec := ts.request(t, http.MethodGet, "/office/invoices", ts.token(t, user), nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	want := `{"message":"Subscription inactive"}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestRoutePolicy_OfficeReports(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	backOffice := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)
	customer := ts.seedUser(t, "customer1", auth.RoleCustomer, tn.ID)

	rec := ts.request(t, http.MethodGet, "/office/reports", ts.token(t, backOffice), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("back office status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = ts.request(t, http.MethodGet, "/office/reports", ts.token(t, customer), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer status = %d, want 403", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != CodeForbidden {
		t.Errorf("error code = %q, want %q", env.Error, CodeForbidden)
	}
}

func TestRoutePolicy_CustomerInvoicesDeniedForFieldEngineer(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	fe := ts.seedUser(t, "engineer1", auth.RoleField, tn.ID)

	rec := ts.request(t, http.MethodGet, "/customer/invoices", ts.token(t, fe), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRoutePolicy_AdminDeniedOnFieldRoutes(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "root", auth.RoleAdmin, 0)

	// No role hierarchy: ADMIN is not in the /fe/** allow set.
	rec := ts.request(t, http.MethodGet, "/fe/stock", ts.token(t, admin), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRoutePolicy_UnauthenticatedOnProtectedRoute(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/office/invoices", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != CodeUnauthorized {
		t.Errorf("error code = %q, want %q", env.Error, CodeUnauthorized)
	}
}

func TestRoutePolicy_PublicRoutesNeedNoToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/actuator/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
}

// A bearer token that fails verification is an unclassified fault, not
// an authentication refusal. The response is a generic 500 and reveals
// nothing about which check rejected the token.
func TestAuthentication_MalformedTokenIsGenericFault(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/office/invoices", "not-a-token", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != CodeInternal {
		t.Errorf("error code = %q, want %q", env.Error, CodeInternal)
	}
	if env.Message != "internal server error" {
		t.Errorf("message = %q leaks detail", env.Message)
	}
}

func TestAuthentication_ExpiredTokenIsGenericFault(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)

	past := time.Now().Add(-2 * time.Hour)
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	rec := ts.request(t, http.MethodGet, "/office/invoices", tok, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

// Identity is carried on the request context, never on server state.
// A request following an authenticated one must not inherit its
// principal.
func TestPipeline_SequentialRequestIsolation(t *testing.T) {
	ts := newTestServer(t)
	tn := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, "office1", auth.RoleBackOffice, tn.ID)

	rec := ts.request(t, http.MethodGet, "/office/invoices", ts.token(t, user), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}

	rec = ts.request(t, http.MethodGet, "/office/invoices", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("following unauthenticated request status = %d, want 401", rec.Code)
	}
}

func TestPipeline_TenantDataIsolation(t *testing.T) {
	ts := newTestServer(t)
	acme := ts.seedTenant(t, "acme")
	globex := ts.seedTenant(t, "globex")
	acmeUser := ts.seedUser(t, "acme-office", auth.RoleBackOffice, acme.ID)
	globexUser := ts.seedUser(t, "globex-office", auth.RoleBackOffice, globex.ID)

	rec := ts.request(t, http.MethodPost, "/office/invoices", ts.token(t, acmeUser), map[string]any{
		"number":        "INV-001",
		"customer_name": "Wile E Coyote",
		"total_cents":   125000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var listing struct {
		Count int `json:"count"`
	}
	rec = ts.request(t, http.MethodGet, "/office/invoices", ts.token(t, globexUser), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if listing.Count != 0 {
		t.Errorf("globex sees %d acme invoices, want 0", listing.Count)
	}
}

func TestPipeline_CORSPreflightBypassesGuard(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/office/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
}
