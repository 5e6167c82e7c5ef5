package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
)

// loginRequest is the POST /auth/login request body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the successful login response.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// handleLogin authenticates a user and issues an access token.
//
// Lookup failures and password mismatches produce the same response so
// the endpoint cannot be used to enumerate usernames.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeDomainError(w, &ValidationError{Fields: map[string]string{
			"username": "required",
			"password": "required",
		}})
		return
	}

	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.recordAuthFailure(r, req.Username)
			writeUnauthorized(w, auth.ErrInvalidCredentials.Error())
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w)
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		s.recordAuthFailure(r, req.Username)
		writeUnauthorized(w, auth.ErrInvalidCredentials.Error())
		return
	}

	if !user.IsActive {
		s.recordAuthFailure(r, req.Username)
		writeUnauthorized(w, auth.ErrInvalidCredentials.Error())
		return
	}

	ttl := time.Duration(s.security.JWT.AccessTokenTTL) * time.Hour
	token, err := auth.GenerateToken(user, s.security.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("token generation failed", "error", err, "user_id", user.ID)
		writeInternalError(w)
		return
	}

	s.recordAudit(r, &audit.AuditLog{
		TenantID:   user.TenantID,
		Action:     "login",
		EntityType: "user",
		UserID:     user.ID,
		Source:     "api",
	})
	if s.influx != nil {
		s.influx.WriteAuthMetric("success")
	}

	s.logger.Info("user logged in", "user_id", user.ID, "tenant_id", user.TenantID, "role", user.Role)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

func (s *Server) recordAuthFailure(r *http.Request, username string) {
	s.logger.Warn("login failed", "username", username, "remote_addr", r.RemoteAddr)
	if s.influx != nil {
		s.influx.WriteAuthMetric("failure")
	}
}

// WebSocket tickets. Browsers cannot set an Authorization header on a
// WebSocket upgrade, so an authenticated caller first exchanges their
// token for a short-lived single-use ticket and passes it as a query
// parameter on the upgrade request.

const ticketTTL = 60 * time.Second

type ticketEntry struct {
	principal auth.Principal
	expires   time.Time
}

// handleWSTicket issues a single-use WebSocket ticket bound to the
// caller's principal.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	ticket := uuid.New().String()
	s.ticketsMu.Lock()
	s.tickets[ticket] = ticketEntry{
		principal: p,
		expires:   time.Now().Add(ticketTTL),
	}
	s.ticketsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int64(ticketTTL.Seconds()),
	})
}

// validateTicket consumes a ticket. Tickets are single use: a
// successful validation removes the entry.
func (s *Server) validateTicket(ticket string) (ticketEntry, bool) {
	s.ticketsMu.Lock()
	defer s.ticketsMu.Unlock()

	entry, ok := s.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}
	delete(s.tickets, ticket)

	if time.Now().After(entry.expires) {
		return ticketEntry{}, false
	}
	return entry, true
}

// cleanTicketsLoop periodically removes expired tickets that were
// never redeemed.
func (s *Server) cleanTicketsLoop(done <-chan struct{}) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			now := time.Now()
			s.ticketsMu.Lock()
			for ticket, entry := range s.tickets {
				if now.After(entry.expires) {
					delete(s.tickets, ticket)
				}
			}
			s.ticketsMu.Unlock()
		}
	}
}
