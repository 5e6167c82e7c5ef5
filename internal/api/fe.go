package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/mqtt"
)

func (s *Server) handleListStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.stock.List(r.Context(), auth.ScopeFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleGetStockItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	item, err := s.stock.GetByID(r.Context(), auth.ScopeFrom(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type reserveStockRequest struct {
	Quantity int64 `json:"quantity"`
}

// handleReserveStock atomically checks and decrements stock for a job.
// The check and the decrement run in one transaction, so two engineers
// racing for the last unit cannot both succeed.
func (s *Server) handleReserveStock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req reserveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Quantity < 1 {
		writeDomainError(w, &ValidationError{Fields: map[string]string{"quantity": "must be at least 1"}})
		return
	}

	item, err := s.stock.Reserve(r.Context(), auth.ScopeFrom(r.Context()), id, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   item.TenantID,
		Action:     "reserve",
		EntityType: "stock",
		EntityID:   strconv.FormatInt(item.ID, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"quantity": req.Quantity, "remaining": item.Quantity},
	})
	s.publishEvent(mqtt.Topics{}.StockReserved(item.ID), map[string]any{
		"item_id":   item.ID,
		"tenant_id": item.TenantID,
		"quantity":  req.Quantity,
		"remaining": item.Quantity,
	})

	writeJSON(w, http.StatusOK, item)
}
