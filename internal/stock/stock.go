// Package stock manages per-tenant stock items and reservations made
// by field engineers.
package stock

import (
	"errors"
	"time"
)

// Sentinel errors for stock operations.
var (
	ErrItemNotFound      = errors.New("stock item not found")
	ErrSKUExists         = errors.New("sku already exists for tenant")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Item is a stocked part owned by a tenant. SKU is unique per tenant.
type Item struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
