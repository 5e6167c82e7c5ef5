// Package invoice manages tenant invoices: the documents back-office
// staff raise and customers read.
package invoice

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusSent  Status = "SENT"
	StatusPaid  Status = "PAID"
	StatusVoid  Status = "VOID"
)

// ValidStatuses is the set of states an invoice may hold.
var ValidStatuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusVoid}

// IsValidStatus returns true if the status is a recognised lifecycle state.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Sentinel errors for invoice operations.
var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceNumberExists = errors.New("invoice number already exists for tenant")
)

// Invoice is a billing document owned by a tenant. Number is unique
// per tenant, not globally. Amounts are integer cents.
type Invoice struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Number       string    `json:"number"`
	CustomerName string    `json:"customer_name"`
	TotalCents   int64     `json:"total_cents"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
