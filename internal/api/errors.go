package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/database"
	"github.com/fieldflowhq/fieldflow-core/internal/invoice"
	"github.com/fieldflowhq/fieldflow-core/internal/stock"
	"github.com/fieldflowhq/fieldflow-core/internal/tenant"
)

// Machine-readable error codes returned in the response envelope.
// Clients branch on the code, never on the message text.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeTypeMismatch        = "TYPE_MISMATCH"
	CodeNotFound            = "NOT_FOUND"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeSubscriptionLocked  = "SUBSCRIPTION_LOCKED"
	CodeBusinessRule        = "BUSINESS_RULE"
	CodeUnexpectedRollback  = "UNEXPECTED_ROLLBACK"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
)

// Envelope is the uniform error response body.
type Envelope struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ValidationError carries per-field validation failures from a handler
// to the translator. The Fields map is surfaced verbatim in the envelope.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// BusinessRuleError marks a domain rule violation that is not a
// validation, constraint, or stock problem.
type BusinessRuleError struct {
	Rule string
}

func (e *BusinessRuleError) Error() string {
	return e.Rule
}

// translateError maps a domain error to an HTTP status and response
// envelope. Classification is by error identity, never by message text.
// Anything unclassified, including token parse failures surfaced by the
// authentication stage, falls through to a 500 with a generic message
// so internal details never leak to clients.
func translateError(err error) (int, Envelope) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, Envelope{
			Error:   CodeValidation,
			Message: "validation failed",
			Fields:  ve.Fields,
		}
	}

	var bre *BusinessRuleError
	if errors.As(err, &bre) {
		return http.StatusBadRequest, Envelope{
			Error:   CodeBusinessRule,
			Message: bre.Rule,
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, Envelope{
			Error:   CodeValidation,
			Message: "malformed request body",
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return http.StatusBadRequest, Envelope{
			Error:   CodeTypeMismatch,
			Message: "invalid value for field " + typeErr.Field,
			Fields:  map[string]string{typeErr.Field: "expected " + typeErr.Type.String()},
		}
	}

	switch {
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, invoice.ErrInvoiceNotFound),
		errors.Is(err, stock.ErrItemNotFound):
		return http.StatusNotFound, Envelope{
			Error:   CodeNotFound,
			Message: err.Error(),
		}

	case errors.Is(err, auth.ErrUsernameExists):
		return http.StatusBadRequest, Envelope{
			Error:   CodeConstraintViolation,
			Message: err.Error(),
			Fields:  map[string]string{"username": "already exists"},
		}
	case errors.Is(err, tenant.ErrTenantNameExists):
		return http.StatusBadRequest, Envelope{
			Error:   CodeConstraintViolation,
			Message: err.Error(),
			Fields:  map[string]string{"name": "already exists"},
		}
	case errors.Is(err, invoice.ErrInvoiceNumberExists):
		return http.StatusBadRequest, Envelope{
			Error:   CodeConstraintViolation,
			Message: err.Error(),
			Fields:  map[string]string{"number": "already exists"},
		}
	case errors.Is(err, stock.ErrSKUExists):
		return http.StatusBadRequest, Envelope{
			Error:   CodeConstraintViolation,
			Message: err.Error(),
			Fields:  map[string]string{"sku": "already exists"},
		}

	case errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict, Envelope{
			Error:   CodeInsufficientStock,
			Message: err.Error(),
		}

	case errors.Is(err, tenant.ErrSubscriptionInactive):
		return http.StatusForbidden, Envelope{
			Error:   CodeSubscriptionLocked,
			Message: "Subscription inactive",
		}

	case errors.Is(err, database.ErrUnexpectedRollback):
		return http.StatusConflict, Envelope{
			Error:   CodeUnexpectedRollback,
			Message: "transaction rolled back unexpectedly",
		}
	}

	return http.StatusInternalServerError, Envelope{
		Error:   CodeInternal,
		Message: "internal server error",
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		//nolint:errcheck // Response already committed; nothing useful to do on encode failure
		json.NewEncoder(w).Encode(data)
	}
}

// writeDomainError translates err and writes the resulting envelope.
func writeDomainError(w http.ResponseWriter, err error) {
	status, env := translateError(err)
	writeJSON(w, status, env)
}

// writeUnauthorized writes a 401 response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Envelope{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// writeForbidden writes a 403 response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, Envelope{
		Error:   CodeForbidden,
		Message: message,
	})
}

// writeInternalError writes a 500 response with a generic message.
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, Envelope{
		Error:   CodeInternal,
		Message: "internal server error",
	})
}
