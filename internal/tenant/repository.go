package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for tenant persistence.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	SetSubscriptionActive(ctx context.Context, id int64, active bool) error
	AssertActive(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed tenant repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const tenantColumns = "id, name, subscription_active, created_at, updated_at"

// Create inserts a new tenant. New tenants start with an active subscription.
func (r *SQLiteRepository) Create(ctx context.Context, t *Tenant) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tenant name is required")
	}

	now := time.Now().UTC().Truncate(time.Second)
	t.SubscriptionActive = true
	t.CreatedAt = now
	t.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (name, subscription_active, created_at, updated_at) VALUES (?, 1, ?, ?)`,
		t.Name, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTenantNameExists
		}
		return fmt.Errorf("creating tenant: %w", err)
	}

	t.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new tenant id: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	return scanTenant(r.db.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = ?", id))
}

// List returns all tenants ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	tenants := []Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}

	return tenants, nil
}

// SetSubscriptionActive flips a tenant's subscription flag. The change
// takes effect on the next request: the guard reads live state, it
// keeps no cache.
func (r *SQLiteRepository) SetSubscriptionActive(ctx context.Context, id int64, active bool) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET subscription_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), now.Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// AssertActive returns nil if the tenant exists and its subscription is
// active, ErrSubscriptionInactive otherwise. An unknown tenant counts
// as inactive: the guard must never let a request through on a missing
// row.
func (r *SQLiteRepository) AssertActive(ctx context.Context, id int64) error {
	var active int
	err := r.db.QueryRowContext(ctx,
		"SELECT subscription_active FROM tenants WHERE id = ?", id).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriptionInactive
		}
		return fmt.Errorf("checking subscription: %w", err)
	}

	if active == 0 {
		return ErrSubscriptionInactive
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(s scanner) (*Tenant, error) {
	var t Tenant
	var active int
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.Name, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	t.SubscriptionActive = active != 0
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
