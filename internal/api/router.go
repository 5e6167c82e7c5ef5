package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter assembles the middleware pipeline and route tree.
//
// Middleware order matters: identity must be resolved before the
// subscription guard reads it, and the guard must run before the role
// table so a locked tenant is refused even on routes its role could
// otherwise reach.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.authenticationMiddleware)
	r.Use(s.subscriptionGuardMiddleware)
	r.Use(s.routePolicyMiddleware)

	r.Get("/", s.handleRoot)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
	})

	r.Route("/actuator", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/tenants", s.handleListTenants)
		r.Post("/tenants", s.handleCreateTenant)
		r.Get("/tenants/{id}", s.handleGetTenant)
		r.Patch("/tenants/{id}/subscription", s.handleSetSubscription)

		r.Get("/users", s.handleListUsers)
		r.Post("/users", s.handleCreateUser)

		r.Get("/audit", s.handleListAudit)

		r.Post("/events/ticket", s.handleWSTicket)
		r.Get("/events/ws", s.handleWebSocket)
	})

	r.Route("/office", func(r chi.Router) {
		r.Get("/invoices", s.handleListInvoices)
		r.Post("/invoices", s.handleCreateInvoice)
		r.Get("/invoices/{id}", s.handleGetInvoice)
		r.Patch("/invoices/{id}/status", s.handleInvoiceStatus)
		r.Get("/reports", s.handleOfficeReports)

		r.Get("/stock", s.handleListStock)
		r.Post("/stock", s.handleCreateStockItem)
	})

	r.Route("/fe", func(r chi.Router) {
		r.Get("/stock", s.handleListStock)
		r.Get("/stock/{id}", s.handleGetStockItem)
		r.Post("/stock/{id}/reserve", s.handleReserveStock)
	})

	r.Route("/customer", func(r chi.Router) {
		r.Get("/invoices", s.handleListInvoices)
		r.Get("/invoices/{id}", s.handleGetInvoice)
	})

	return r
}

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "fieldflow-core",
		"version": s.version,
	})
}
