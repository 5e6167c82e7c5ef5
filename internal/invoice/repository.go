package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

// Repository defines the interface for invoice persistence. Every read
// and write takes a tenant scope.
type Repository interface {
	Create(ctx context.Context, scope auth.Scope, inv *Invoice) error
	GetByID(ctx context.Context, scope auth.Scope, id int64) (*Invoice, error)
	List(ctx context.Context, scope auth.Scope) ([]Invoice, error)
	UpdateStatus(ctx context.Context, scope auth.Scope, id int64, status Status) error
	TotalsByStatus(ctx context.Context, scope auth.Scope) (map[Status]int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed invoice repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const invoiceColumns = "id, tenant_id, number, customer_name, total_cents, status, created_at, updated_at"

// Create inserts a new invoice into the scope's tenant. A bound scope
// overrides whatever TenantID the caller set: rows cannot be written
// into another tenant.
func (r *SQLiteRepository) Create(ctx context.Context, scope auth.Scope, inv *Invoice) error {
	if strings.TrimSpace(inv.Number) == "" {
		return fmt.Errorf("invoice number is required")
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if !IsValidStatus(inv.Status) {
		return fmt.Errorf("invalid status %q", inv.Status)
	}
	if !scope.Unbound {
		inv.TenantID = scope.TenantID
	}
	if inv.TenantID == 0 {
		return fmt.Errorf("invoice requires a tenant")
	}

	now := time.Now().UTC().Truncate(time.Second)
	inv.CreatedAt = now
	inv.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (tenant_id, number, customer_name, total_cents, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.TenantID, inv.Number, inv.CustomerName, inv.TotalCents, string(inv.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrInvoiceNumberExists
		}
		return fmt.Errorf("creating invoice: %w", err)
	}

	inv.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new invoice id: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice by ID, restricted to the given scope.
func (r *SQLiteRepository) GetByID(ctx context.Context, scope auth.Scope, id int64) (*Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE id = ?"
	args := []any{id}

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag
	args = append(args, scopeArgs...)

	return scanInvoice(r.db.QueryRowContext(ctx, query, args...))
}

// List returns invoices visible in the scope, newest first.
func (r *SQLiteRepository) List(ctx context.Context, scope auth.Scope) ([]Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE 1=1"
	var args []any

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag + " ORDER BY created_at DESC, id DESC"
	args = append(args, scopeArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	return invoices, nil
}

// UpdateStatus moves an invoice to a new lifecycle state, restricted to
// the given scope.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, scope auth.Scope, id int64, status Status) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}

	now := time.Now().UTC().Truncate(time.Second)

	query := `UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`
	args := []any{string(status), now.Format(time.RFC3339), id}

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag
	args = append(args, scopeArgs...)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// TotalsByStatus sums invoice totals per status within the scope.
// Feeds the office reporting endpoint.
func (r *SQLiteRepository) TotalsByStatus(ctx context.Context, scope auth.Scope) (map[Status]int64, error) {
	query := "SELECT status, COALESCE(SUM(total_cents), 0) FROM invoices WHERE 1=1"
	var args []any

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag + " GROUP BY status"
	args = append(args, scopeArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summing invoices: %w", err)
	}
	defer rows.Close()

	totals := map[Status]int64{}
	for rows.Next() {
		var status string
		var sum int64
		if err := rows.Scan(&status, &sum); err != nil {
			return nil, fmt.Errorf("scanning invoice totals: %w", err)
		}
		totals[Status(status)] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice totals: %w", err)
	}

	return totals, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (*Invoice, error) {
	var inv Invoice
	var status string
	var createdAt, updatedAt string

	err := s.Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.CustomerName,
		&inv.TotalCents, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}

	inv.Status = Status(status)
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	inv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &inv, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
