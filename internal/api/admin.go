package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/mqtt"
	"github.com/fieldflowhq/fieldflow-core/internal/tenant"
)

// idParam extracts a numeric URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return id, nil
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenants.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": tenants,
		"count":   len(tenants),
	})
}

type createTenantRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeDomainError(w, &ValidationError{Fields: map[string]string{"name": "required"}})
		return
	}

	t := &tenant.Tenant{Name: req.Name}
	if err := s.tenants.Create(r.Context(), t); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   t.ID,
		Action:     "create",
		EntityType: "tenant",
		EntityID:   strconv.FormatInt(t.ID, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"name": t.Name},
	})
	s.publishEvent(mqtt.Topics{}.TenantCreated(t.ID), map[string]any{
		"tenant_id": t.ID,
		"name":      t.Name,
	})
	s.hub.Broadcast("tenant.created", t)

	s.logger.Info("tenant created", "tenant_id", t.ID, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	t, err := s.tenants.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type setSubscriptionRequest struct {
	Active *bool `json:"active"`
}

// handleSetSubscription flips a tenant's subscription state. The guard
// reads live state, so the change takes effect on the tenant's next
// request.
func (s *Server) handleSetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req setSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Active == nil {
		writeDomainError(w, &ValidationError{Fields: map[string]string{"active": "required"}})
		return
	}

	if err := s.tenants.SetSubscriptionActive(r.Context(), id, *req.Active); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   id,
		Action:     "subscription",
		EntityType: "tenant",
		EntityID:   strconv.FormatInt(id, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"active": *req.Active},
	})
	s.publishEvent(mqtt.Topics{}.TenantSubscription(id), map[string]any{
		"tenant_id": id,
		"active":    *req.Active,
	})
	s.hub.Broadcast("tenant.subscription_changed", map[string]any{
		"tenant_id": id,
		"active":    *req.Active,
	})

	s.logger.Info("tenant subscription updated", "tenant_id", id, "active", *req.Active)
	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id": id,
		"active":    *req.Active,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), auth.ScopeFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

type createUserRequest struct {
	TenantID    int64     `json:"tenant_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	Role        auth.Role `json:"role"`
}

const minPasswordLength = 8

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	fields := make(map[string]string)
	if !auth.IsValidUsername(req.Username) {
		fields["username"] = "must be 3-64 characters: letters, digits, dot, dash, underscore"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if !auth.IsValidRole(req.Role) {
		fields["role"] = "unknown role"
	}
	// Only platform administrators are tenant-unbound. Every other role
	// must belong to a tenant.
	if req.Role != auth.RoleAdmin && req.TenantID < 1 {
		fields["tenant_id"] = "required for tenant-bound roles"
	}
	if len(fields) > 0 {
		writeDomainError(w, &ValidationError{Fields: fields})
		return
	}

	if req.TenantID > 0 {
		if _, err := s.tenants.GetByID(r.Context(), req.TenantID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		writeInternalError(w)
		return
	}

	user := &auth.User{
		TenantID:     req.TenantID,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   user.TenantID,
		Action:     "create",
		EntityType: "user",
		EntityID:   strconv.FormatInt(user.ID, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"username": user.Username, "role": user.Role},
	})
	s.publishEvent(mqtt.Topics{}.UserCreated(user.ID), map[string]any{
		"user_id":   user.ID,
		"tenant_id": user.TenantID,
		"role":      string(user.Role),
	})

	s.logger.Info("user created", "user_id", user.ID, "tenant_id", user.TenantID, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	result, err := s.audit.List(r.Context(), auth.ScopeFrom(r.Context()), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// publishEvent pushes an event onto the MQTT bus when a client is
// configured. Bus failures are logged, never surfaced to the caller.
func (s *Server) publishEvent(topic string, event map[string]any) {
	if s.mqttClient == nil {
		return
	}
	if err := s.mqttClient.PublishEvent(topic, event); err != nil {
		s.logger.Warn("event publish failed", "topic", topic, "error", err)
	}
}
