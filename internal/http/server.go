// Package http serves the budget JSON API and the dashboard change stream.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call. Assistant and Hub may be nil.
type Deps struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	BudgetView   *services.BudgetAggregator
	Goals        *services.GoalTracker
	Dashboard    *services.DashboardAggregator
	Assistant    *services.AssistantService
	Store        Pinger
	Hub          *Hub
}

// ServerConfig holds listener and middleware settings.
type ServerConfig struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Server is the API http.Server plus the middleware state it owns.
type Server struct {
	http.Server

	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector: detector,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleBudgetMonth)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/available-categories", s.handleAvailableCategories)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/summary", s.handleGoalsSummary)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleContribute)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/overview", s.handleDashboardOverview)
	mux.HandleFunc("GET /api/dashboard/spending-chart.png", s.handleSpendingChart)

	mux.HandleFunc("GET /api/categories", handleCategories)
	mux.HandleFunc("POST /api/assistant", s.handleAssistant)

	if s.deps.Hub != nil {
		mux.HandleFunc("GET /ws", s.deps.Hub.ServeWS)
	}
}

// middleware wraps h, outermost first: tracing, security headers, scanner
// detection, rate limiting of writes, session extraction.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = sessionMiddleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.IsMutating, s.onRateLimited)(h)
	h = s.detector.Middleware()(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, please try again later"})
}

// Shutdown closes websocket clients, stops the limiter and drains the
// listener. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server",
			log.FieldOperation, log.OpShutdown,
			"requests_served", s.tracer.GetMetrics().TotalRequests,
			"rate_limit_hits", s.limiter.GetMetrics().TotalHits,
			"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests)

		if s.deps.Hub != nil {
			s.deps.Hub.Close()
		}
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until Shutdown. http.ErrServerClosed is
// not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
