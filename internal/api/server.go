package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fieldflowhq/fieldflow-core/internal/audit"
	"github.com/fieldflowhq/fieldflow-core/internal/auth"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/config"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/database"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/influxdb"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/logging"
	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/mqtt"
	"github.com/fieldflowhq/fieldflow-core/internal/invoice"
	"github.com/fieldflowhq/fieldflow-core/internal/stock"
	"github.com/fieldflowhq/fieldflow-core/internal/tenant"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests to drain.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required to construct a Server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	DB       *database.DB
	Users    auth.UserRepository
	Tenants  tenant.Repository
	Invoices invoice.Repository
	Stock    stock.Repository
	Audit    audit.Repository

	// Optional integrations. A nil client disables the feature.
	MQTT   *mqtt.Client
	Influx *influxdb.Client

	Version string
}

// Server is the FieldFlow HTTP API server. It owns the middleware
// pipeline that authenticates, guards, and authorises every request
// before a handler runs.
type Server struct {
	cfg      config.APIConfig
	security config.SecurityConfig
	logger   *logging.Logger
	db       *database.DB

	users    auth.UserRepository
	tenants  tenant.Repository
	invoices invoice.Repository
	stock    stock.Repository
	audit    audit.Repository

	mqttClient *mqtt.Client
	influx     *influxdb.Client

	version    string
	httpServer *http.Server
	hub        *Hub
	startTime  time.Time

	tickets   map[string]ticketEntry
	ticketsMu sync.Mutex

	cancel context.CancelFunc
}

// New creates a Server from its dependencies. It fails fast on missing
// required dependencies rather than panicking on the first request.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.DB == nil {
		return nil, errors.New("api: database is required")
	}
	if deps.Users == nil {
		return nil, errors.New("api: user repository is required")
	}
	if deps.Tenants == nil {
		return nil, errors.New("api: tenant repository is required")
	}
	if deps.Invoices == nil {
		return nil, errors.New("api: invoice repository is required")
	}
	if deps.Stock == nil {
		return nil, errors.New("api: stock repository is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("api: audit repository is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, errors.New("api: jwt secret is required")
	}

	s := &Server{
		cfg:        deps.Config,
		security:   deps.Security,
		logger:     deps.Logger.With("component", "api"),
		db:         deps.DB,
		users:      deps.Users,
		tenants:    deps.Tenants,
		invoices:   deps.Invoices,
		stock:      deps.Stock,
		audit:      deps.Audit,
		mqttClient: deps.MQTT,
		influx:     deps.Influx,
		version:    deps.Version,
		tickets:    make(map[string]ticketEntry),
	}
	s.hub = NewHub(s.logger)

	return s, nil
}

// Start begins serving HTTP requests. It returns immediately; serve
// errors other than graceful shutdown are logged.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.startTime = time.Now()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go s.hub.Run(ctx)
	go s.cleanTicketsLoop(ctx.Done())

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("api server starting", "addr", addr, "tls", true)
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("api server starting", "addr", addr, "tls", false)
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server failed", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, draining in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server's critical dependencies.
func (s *Server) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// recordAudit writes an audit entry, logging rather than failing the
// request when the write itself fails. The audit trail must never take
// the business operation down with it.
func (s *Server) recordAudit(r *http.Request, entry *audit.AuditLog) {
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Error("audit write failed", "error", err, "action", entry.Action)
	}
}
