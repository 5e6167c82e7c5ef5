package invoice

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

// testDB creates a temporary SQLite database with tenants and invoices applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "invoice-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE tenants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			subscription_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			number TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			total_cents INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			UNIQUE (tenant_id, number),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE
		) STRICT;

		CREATE INDEX idx_invoices_tenant ON invoices(tenant_id);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying invoice schema: %v", err)
	}

	return db
}

func seedTenant(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	result, err := db.Exec(`INSERT INTO tenants (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("seeding tenant %s: %v", name, err)
	}
	id, _ := result.LastInsertId()
	return id
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")

	inv := &Invoice{
		Number:       "INV-2026-001",
		CustomerName: "Jones Household",
		TotalCents:   125000,
	}
	if err := repo.Create(ctx, auth.Scope{TenantID: acme}, inv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if inv.ID == 0 {
		t.Fatal("Create() should assign an ID")
	}
	if inv.TenantID != acme {
		t.Errorf("TenantID = %d, want %d (scope tenant)", inv.TenantID, acme)
	}
	if inv.Status != StatusDraft {
		t.Errorf("Status = %q, want DRAFT default", inv.Status)
	}

	got, err := repo.GetByID(ctx, auth.Scope{TenantID: acme}, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Number != "INV-2026-001" {
		t.Errorf("Number = %q, want INV-2026-001", got.Number)
	}
	if got.TotalCents != 125000 {
		t.Errorf("TotalCents = %d, want 125000", got.TotalCents)
	}
}

func TestRepository_Create_ScopeOverridesTenant(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	// Caller claims globex, but the bound scope wins
	inv := &Invoice{TenantID: globex, Number: "INV-1", CustomerName: "X"}
	if err := repo.Create(ctx, auth.Scope{TenantID: acme}, inv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if inv.TenantID != acme {
		t.Errorf("TenantID = %d, want %d: bound scope must override caller input", inv.TenantID, acme)
	}
}

func TestRepository_Create_DuplicateNumberPerTenant(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	if err := repo.Create(ctx, auth.Scope{TenantID: acme}, &Invoice{Number: "INV-1", CustomerName: "A"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Same number in the same tenant fails
	err := repo.Create(ctx, auth.Scope{TenantID: acme}, &Invoice{Number: "INV-1", CustomerName: "B"})
	if !errors.Is(err, ErrInvoiceNumberExists) {
		t.Errorf("error = %v, want ErrInvoiceNumberExists", err)
	}

	// Same number in another tenant is fine
	if err := repo.Create(ctx, auth.Scope{TenantID: globex}, &Invoice{Number: "INV-1", CustomerName: "C"}); err != nil {
		t.Errorf("Create() in other tenant error = %v", err)
	}
}

func TestRepository_List_ScopeIsolation(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	for _, n := range []string{"INV-1", "INV-2"} {
		if err := repo.Create(ctx, auth.Scope{TenantID: acme}, &Invoice{Number: n, CustomerName: "A"}); err != nil {
			t.Fatalf("Create(%s) error = %v", n, err)
		}
	}
	if err := repo.Create(ctx, auth.Scope{TenantID: globex}, &Invoice{Number: "INV-9", CustomerName: "G"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	acmeInvoices, err := repo.List(ctx, auth.Scope{TenantID: acme})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(acmeInvoices) != 2 {
		t.Errorf("acme List() = %d invoices, want 2", len(acmeInvoices))
	}
	for _, inv := range acmeInvoices {
		if inv.TenantID != acme {
			t.Errorf("List() leaked invoice %q from tenant %d", inv.Number, inv.TenantID)
		}
	}

	all, err := repo.List(ctx, auth.Scope{Unbound: true})
	if err != nil {
		t.Fatalf("List() unbound error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unbound List() = %d invoices, want 3", len(all))
	}

	// Cross-tenant GetByID misses
	_, err = repo.GetByID(ctx, auth.Scope{TenantID: globex}, acmeInvoices[0].ID)
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("cross-tenant GetByID() error = %v, want ErrInvoiceNotFound", err)
	}
}

func TestRepository_UpdateStatus(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	inv := &Invoice{Number: "INV-1", CustomerName: "A"}
	if err := repo.Create(ctx, auth.Scope{TenantID: acme}, inv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Cross-tenant update misses
	err := repo.UpdateStatus(ctx, auth.Scope{TenantID: globex}, inv.ID, StatusSent)
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("cross-tenant UpdateStatus() error = %v, want ErrInvoiceNotFound", err)
	}

	if err := repo.UpdateStatus(ctx, auth.Scope{TenantID: acme}, inv.ID, StatusSent); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, auth.Scope{TenantID: acme}, inv.ID)
	if got.Status != StatusSent {
		t.Errorf("Status = %q, want SENT", got.Status)
	}

	if err := repo.UpdateStatus(ctx, auth.Scope{TenantID: acme}, inv.ID, Status("BOGUS")); err == nil {
		t.Error("UpdateStatus() should reject unknown status")
	}
}

func TestRepository_TotalsByStatus(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	scope := auth.Scope{TenantID: acme}
	seed := []Invoice{
		{Number: "INV-1", CustomerName: "A", TotalCents: 1000, Status: StatusPaid},
		{Number: "INV-2", CustomerName: "B", TotalCents: 2500, Status: StatusPaid},
		{Number: "INV-3", CustomerName: "C", TotalCents: 400, Status: StatusDraft},
	}
	for i := range seed {
		if err := repo.Create(ctx, scope, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	// Another tenant's invoice must not count
	if err := repo.Create(ctx, auth.Scope{TenantID: globex}, &Invoice{Number: "INV-1", CustomerName: "X", TotalCents: 9999, Status: StatusPaid}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	totals, err := repo.TotalsByStatus(ctx, scope)
	if err != nil {
		t.Fatalf("TotalsByStatus() error = %v", err)
	}

	if totals[StatusPaid] != 3500 {
		t.Errorf("PAID total = %d, want 3500", totals[StatusPaid])
	}
	if totals[StatusDraft] != 400 {
		t.Errorf("DRAFT total = %d, want 400", totals[StatusDraft])
	}
}
