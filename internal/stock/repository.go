package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/database"
)

// Repository defines the interface for stock persistence.
type Repository interface {
	Create(ctx context.Context, scope auth.Scope, item *Item) error
	GetByID(ctx context.Context, scope auth.Scope, id int64) (*Item, error)
	List(ctx context.Context, scope auth.Scope) ([]Item, error)
	Reserve(ctx context.Context, scope auth.Scope, id int64, qty int64) (*Item, error)
}

// SQLiteRepository implements Repository using SQLite. It holds the
// database wrapper rather than a bare sql.DB because Reserve runs
// inside a transaction.
type SQLiteRepository struct {
	db *database.DB
}

// NewRepository creates a new SQLite-backed stock repository.
func NewRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const itemColumns = "id, tenant_id, sku, name, quantity, created_at, updated_at"

// Create inserts a new stock item into the scope's tenant.
func (r *SQLiteRepository) Create(ctx context.Context, scope auth.Scope, item *Item) error {
	if strings.TrimSpace(item.SKU) == "" {
		return fmt.Errorf("sku is required")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if !scope.Unbound {
		item.TenantID = scope.TenantID
	}
	if item.TenantID == 0 {
		return fmt.Errorf("stock item requires a tenant")
	}

	now := time.Now().UTC().Truncate(time.Second)
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_items (tenant_id, sku, name, quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.TenantID, item.SKU, item.Name, item.Quantity,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSKUExists
		}
		return fmt.Errorf("creating stock item: %w", err)
	}

	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new stock item id: %w", err)
	}

	return nil
}

// GetByID retrieves a stock item by ID, restricted to the given scope.
func (r *SQLiteRepository) GetByID(ctx context.Context, scope auth.Scope, id int64) (*Item, error) {
	query := "SELECT " + itemColumns + " FROM stock_items WHERE id = ?"
	args := []any{id}

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag
	args = append(args, scopeArgs...)

	return scanItem(r.db.QueryRowContext(ctx, query, args...))
}

// List returns stock items visible in the scope, ordered by SKU.
func (r *SQLiteRepository) List(ctx context.Context, scope auth.Scope) ([]Item, error) {
	query := "SELECT " + itemColumns + " FROM stock_items WHERE 1=1"
	var args []any

	frag, scopeArgs := scope.Filter("tenant_id")
	query += frag + " ORDER BY sku ASC"
	args = append(args, scopeArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock items: %w", err)
	}

	return items, nil
}

// Reserve atomically decrements a stock item's quantity by qty.
//
// The check and the decrement run in one transaction so two concurrent
// reservations cannot both succeed on the last unit. Insufficient
// quantity returns ErrInsufficientStock and leaves the row unchanged.
func (r *SQLiteRepository) Reserve(ctx context.Context, scope auth.Scope, id int64, qty int64) (*Item, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reservation quantity must be positive")
	}

	var reserved *Item
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := "SELECT " + itemColumns + " FROM stock_items WHERE id = ?"
		args := []any{id}

		frag, scopeArgs := scope.Filter("tenant_id")
		query += frag
		args = append(args, scopeArgs...)

		item, err := scanItem(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return err
		}

		if item.Quantity < qty {
			return fmt.Errorf("%w: %d requested, %d available", ErrInsufficientStock, qty, item.Quantity)
		}

		now := time.Now().UTC().Truncate(time.Second)
		if _, err := tx.ExecContext(ctx,
			`UPDATE stock_items SET quantity = quantity - ?, updated_at = ? WHERE id = ?`,
			qty, now.Format(time.RFC3339), id,
		); err != nil {
			return fmt.Errorf("decrementing stock: %w", err)
		}

		item.Quantity -= qty
		item.UpdatedAt = now
		reserved = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reserved, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*Item, error) {
	var item Item
	var createdAt, updatedAt string

	err := s.Scan(&item.ID, &item.TenantID, &item.SKU, &item.Name,
		&item.Quantity, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("scanning stock item: %w", err)
	}

	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &item, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
