// Package tenant manages FieldFlow customer organisations and their
// subscription state.
//
// A tenant owns every business row in the system (users, invoices,
// stock). The subscription flag is the tenant-level kill switch: when
// it is off, the subscription guard rejects every business request for
// that tenant until an administrator flips it back on.
package tenant

import (
	"errors"
	"time"
)

// Sentinel errors for tenant operations.
var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrTenantNameExists     = errors.New("tenant name already exists")
	ErrSubscriptionInactive = errors.New("subscription inactive")
)

// Tenant is a customer organisation.
type Tenant struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SubscriptionActive bool      `json:"subscription_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
