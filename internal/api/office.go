package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/invoice"
	"github.com/fieldflowhq/fieldflow-core/internal/stock"
)

// handleListInvoices serves both the office and customer invoice
// listings. The scope derived from the principal does the filtering,
// so the handler body is identical for every role that reaches it.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.List(r.Context(), auth.ScopeFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	inv, err := s.invoices.GetByID(r.Context(), auth.ScopeFrom(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

type createInvoiceRequest struct {
	TenantID     int64  `json:"tenant_id"` // honoured only for tenant-unbound callers
	Number       string `json:"number"`
	CustomerName string `json:"customer_name"`
	TotalCents   int64  `json:"total_cents"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Number) == "" {
		fields["number"] = "required"
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		fields["customer_name"] = "required"
	}
	if req.TotalCents < 0 {
		fields["total_cents"] = "must not be negative"
	}
	if len(fields) > 0 {
		writeDomainError(w, &ValidationError{Fields: fields})
		return
	}

	inv := &invoice.Invoice{
		TenantID:     req.TenantID,
		Number:       strings.TrimSpace(req.Number),
		CustomerName: strings.TrimSpace(req.CustomerName),
		TotalCents:   req.TotalCents,
	}
	if err := s.invoices.Create(r.Context(), auth.ScopeFrom(r.Context()), inv); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   inv.TenantID,
		Action:     "create",
		EntityType: "invoice",
		EntityID:   strconv.FormatInt(inv.ID, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"number": inv.Number, "total_cents": inv.TotalCents},
	})

	s.logger.Info("invoice created", "invoice_id", inv.ID, "tenant_id", inv.TenantID)
	writeJSON(w, http.StatusCreated, inv)
}

type invoiceStatusRequest struct {
	Status invoice.Status `json:"status"`
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req invoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}
	if !invoice.IsValidStatus(req.Status) {
		writeDomainError(w, &ValidationError{Fields: map[string]string{"status": "unknown status"}})
		return
	}

	if err := s.invoices.UpdateStatus(r.Context(), auth.ScopeFrom(r.Context()), id, req.Status); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   p.TenantID,
		Action:     "update",
		EntityType: "invoice",
		EntityID:   strconv.FormatInt(id, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"status": req.Status},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"invoice_id": id,
		"status":     req.Status,
	})
}

// handleOfficeReports summarises invoice totals by status for the
// caller's tenant. A tenant-unbound caller sees the platform-wide
// aggregate.
func (s *Server) handleOfficeReports(w http.ResponseWriter, r *http.Request) {
	totals, err := s.invoices.TotalsByStatus(r.Context(), auth.ScopeFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var grandTotal int64
	for _, cents := range totals {
		grandTotal += cents
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totals_by_status":  totals,
		"grand_total_cents": grandTotal,
	})
}

type createStockItemRequest struct {
	TenantID int64  `json:"tenant_id"` // honoured only for tenant-unbound callers
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func (s *Server) handleCreateStockItem(w http.ResponseWriter, r *http.Request) {
	var req createStockItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.SKU) == "" {
		fields["sku"] = "required"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if req.Quantity < 0 {
		fields["quantity"] = "must not be negative"
	}
	if len(fields) > 0 {
		writeDomainError(w, &ValidationError{Fields: fields})
		return
	}

	item := &stock.Item{
		TenantID: req.TenantID,
		SKU:      strings.TrimSpace(req.SKU),
		Name:     strings.TrimSpace(req.Name),
		Quantity: req.Quantity,
	}
	if err := s.stock.Create(r.Context(), auth.ScopeFrom(r.Context()), item); err != nil {
		writeDomainError(w, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context()) //nolint:errcheck // route policy guarantees a principal here
	s.recordAudit(r, &audit.AuditLog{
		TenantID:   item.TenantID,
		Action:     "create",
		EntityType: "stock",
		EntityID:   strconv.FormatInt(item.ID, 10),
		UserID:     p.UserID,
		Source:     "api",
		Details:    map[string]any{"sku": item.SKU, "quantity": item.Quantity},
	})

	s.logger.Info("stock item created", "item_id", item.ID, "tenant_id", item.TenantID, "sku", item.SKU)
	writeJSON(w, http.StatusCreated, item)
}
