package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/fieldflowhq/fieldflow-core/migrations"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/config"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/database"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/logging"
	"github.com/fieldflowhq/fieldflow-core/internal/invoice"
	"github.com/fieldflowhq/fieldflow-core/internal/stock"
	"github.com/fieldflowhq/fieldflow-core/internal/tenant"
)

const testSecret = "test-secret-for-development-only-0"

// testServer bundles the server under test with direct repository
// access so fixtures can be seeded without going through the API.
type testServer struct {
	server   *Server
	handler  http.Handler
	users    auth.UserRepository
	tenants  tenant.Repository
	invoices invoice.Repository
	stock    stock.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api_test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	users := auth.NewUserRepository(db.DB)
	tenants := tenant.NewRepository(db.DB)
	invoices := invoice.NewRepository(db.DB)
	stockRepo := stock.NewRepository(db)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: config.APITimeoutConfig{
				Read: 30, Write: 30, Idle: 60,
			},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testSecret,
				AccessTokenTTL: 8,
			},
		},
		Logger:   logging.Default(),
		DB:       db,
		Users:    users,
		Tenants:  tenants,
		Invoices: invoices,
		Stock:    stockRepo,
		Audit:    auditRepo,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	srv.startTime = time.Now()

	return &testServer{
		server:   srv,
		handler:  srv.buildRouter(),
		users:    users,
		tenants:  tenants,
		invoices: invoices,
		stock:    stockRepo,
	}
}

// seedTenant creates an active tenant.
func (ts *testServer) seedTenant(t *testing.T, name string) *tenant.Tenant {
	t.Helper()
	tn := &tenant.Tenant{Name: name}
	if err := ts.tenants.Create(context.Background(), tn); err != nil {
		t.Fatalf("seeding tenant %q: %v", name, err)
	}
	return tn
}

// seedUser creates a user with a placeholder password hash. Tests that
// exercise login use seedLoginUser instead; everything else obtains a
// token directly so the slow hash is skipped.
func (ts *testServer) seedUser(t *testing.T, username string, role auth.Role, tenantID int64) *auth.User {
	t.Helper()
	u := &auth.User{
		TenantID:     tenantID,
		Username:     username,
		DisplayName:  username,
		PasswordHash: "placeholder",
		Role:         role,
		IsActive:     true,
	}
	if err := ts.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
	return u
}

// seedLoginUser creates a user whose password verifies against the
// given plaintext.
func (ts *testServer) seedLoginUser(t *testing.T, username, password string, role auth.Role, tenantID int64) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := &auth.User{
		TenantID:     tenantID,
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := ts.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
	return u
}

// token issues a valid access token for the given user.
func (ts *testServer) token(t *testing.T, u *auth.User) string {
	t.Helper()
	tok, err := auth.GenerateToken(u, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return tok
}

// request performs an HTTP request against the router and returns the
// recorded response. A non-empty token is sent as a bearer credential.
func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope parses an error response body.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding error envelope from %q: %v", rec.Body.String(), err)
	}
	return env
}
