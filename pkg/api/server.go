package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yieldworks/compounder/pkg/observability"
	"github.com/yieldworks/compounder/pkg/service"
)

// ServerConfig assembles a Server.
type ServerConfig struct {
	Addr    string
	Service *service.Service
	// JWTSecret signs and verifies bearer tokens. Empty fails closed.
	JWTSecret []byte
	// RateLimitRPS and RateLimitBurst bound per-IP request rates.
	RateLimitRPS   int
	RateLimitBurst int
	// Observability is optional; nil disables span and metric recording.
	Observability *observability.Provider
}

// Server serves the compounder HTTP API.
type Server struct {
	svc     *service.Service
	obs     *observability.Provider
	http    *http.Server
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewServer builds the route table and wraps it with authentication and
// rate-limit middleware.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		svc:    cfg.Service,
		obs:    cfg.Observability,
		logger: slog.Default().With("component", "api_server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.get(s.handleHealth))
	mux.HandleFunc("/readiness", s.get(s.handleHealth))

	mux.HandleFunc("/v1/preferences", s.post("submit_preferences", s.handleSubmitPreferences))
	mux.HandleFunc("/v1/preferences/cancel", s.post("cancel_preferences", s.handleCancelPreferences))
	mux.HandleFunc("/v1/compound", s.post("compound", s.handleCompound))
	mux.HandleFunc("/v1/grants", s.get(s.traced("derive_grants", s.handleGrants)))
	mux.HandleFunc("/v1/revocations", s.get(s.traced("derive_revocations", s.handleRevocations)))
	mux.HandleFunc("/v1/strategies", s.get(s.handleListStrategies))
	mux.HandleFunc("/v1/records", s.get(s.handleGetRecord))
	mux.HandleFunc("/v1/records/by-strategy", s.get(s.handleRecordsByStrategy))
	mux.HandleFunc("/v1/records/by-owner", s.get(s.handleRecordsByOwner))
	mux.HandleFunc("/v1/runs", s.get(s.handleListRuns))

	mux.HandleFunc("/v1/admin/set-admin", s.post("admin_set_admin", s.handleSetAdmin))
	mux.HandleFunc("/v1/admin/strategies", s.post("admin_allow_strategy", s.handleAllowStrategy))
	mux.HandleFunc("/v1/admin/strategies/remove", s.post("admin_remove_strategy", s.handleRemoveStrategy))
	mux.HandleFunc("/v1/admin/fee-config", s.post("admin_fee_config", s.handleSetFeeConfig))
	mux.HandleFunc("/v1/admin/prune", s.post("admin_prune", s.handlePrune))

	var handler http.Handler = mux
	handler = AuthMiddleware(NewJWTValidator(cfg.JWTSecret))(handler)
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		handler = s.limiter.Middleware(handler)
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Handler exposes the fully-wrapped handler, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("serving API", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate-limit sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteMethodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func (s *Server) post(operation string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteMethodNotAllowed(w)
			return
		}
		s.traced(operation, h)(w, r)
	}
}

// traced wraps a handler in an observability span when a provider is wired.
func (s *Server) traced(operation string, h http.HandlerFunc) http.HandlerFunc {
	if s.obs == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, end := s.obs.Start(r.Context(), operation)
		defer end(nil)
		h(w, r.WithContext(ctx))
	}
}
