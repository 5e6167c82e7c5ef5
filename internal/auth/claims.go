package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL is the fixed validity window applied when the caller
// passes a non-positive TTL. The window runs from issuance and does not
// slide.
const defaultTokenTTL = 8 * time.Hour

// Claims is the signed payload of an access token: identity, tenant,
// role and validity window. Immutable once signed.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64 `json:"uid"`
	TenantID int64 `json:"tid"`
	Role     Role  `json:"role"`
}

// Principal derives the request principal from verified claims.
func (c *Claims) Principal() Principal {
	return Principal{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		Role:     c.Role,
	}
}

// GenerateToken creates a signed HS256 access token for a user.
// Validity is signature + expiry only: there is no revocation list and
// no refresh flow, so the TTL is deliberately short-lived.
func GenerateToken(user *User, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ParseToken validates and parses an access token, returning the claims.
//
// It checks the signature, expiry, and required fields. Failures are
// reported as the matching subtype sentinel (ErrTokenMalformed,
// ErrTokenSignature, ErrTokenExpired), all of which wrap
// ErrTokenInvalid.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing uid", ErrTokenMalformed)
	}

	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrTokenMalformed)
	}

	return claims, nil
}

// classifyParseError maps jwt library failures onto the token sentinel
// family so callers never need to import the jwt package.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}
