package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
// Roles are flat: there is no hierarchy, each route lists the roles it accepts.
type Role string

const (
	// RoleAdmin is a platform administrator. Tenant-unbound: sees data
	// across all tenants and bypasses the subscription guard on every path.
	RoleAdmin Role = "ADMIN"

	// RoleBackOffice is a tenant's office staff: invoicing, reporting,
	// customer management.
	RoleBackOffice Role = "BACK_OFFICE"

	// RoleField is a field engineer: stock and job operations on site.
	RoleField Role = "FE"

	// RoleCustomer is a tenant's end customer with read access to their
	// own documents.
	RoleCustomer Role = "CUSTOMER"
)

// ValidRoles is the set of roles a user account may hold.
var ValidRoles = []Role{RoleAdmin, RoleBackOffice, RoleField, RoleCustomer}

// IsValidRole returns true if the role is a recognised user role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Principal is the authenticated identity for the current request.
// It is derived from verified token claims and lives exactly one request.
type Principal struct {
	UserID   int64 `json:"user_id"`
	TenantID int64 `json:"tenant_id"` // 0 when tenant-unbound (platform administrator)
	Role     Role  `json:"role"`
}

// IsAdmin returns true if the principal carries the administrator authority.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account that can authenticate.
type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id,omitempty"` // 0 for platform administrators
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameExists     = errors.New("username already exists")
	ErrForbidden          = errors.New("insufficient permissions")
)

// ErrTokenInvalid is the root failure for token verification. The
// subtype sentinels below all wrap it, so callers can match either the
// family (errors.Is(err, ErrTokenInvalid)) or the specific variant.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
)
