package server

import (
	"context"
	"net/http"
	"time"

	"github.com/arjun/vita/internal/governance"
	"github.com/arjun/vita/internal/observability"
)

// Server is the HTTP edge of the service. It admits and validates requests,
// hands them to the engine, and persists weekly reports after the engine
// returns.
type Server struct {
	handlers   *Handlers
	httpServer *http.Server
}

func NewServer(addr string, h *Handlers) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", h.HandleRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /example", h.HandleExample)
	mux.HandleFunc("POST /analyze", h.HandleAnalyze)
	mux.HandleFunc("POST /weekly-report", h.HandleWeeklyReport)
	mux.HandleFunc("POST /chat", h.HandleChat)
	mux.HandleFunc("GET /reports", h.requireKey(h.HandleListReports))
	mux.HandleFunc("GET /reports/{id}", h.requireKey(h.HandleGetReport))

	return &Server{
		handlers: h,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      logRequests(h.Logger, mux),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks until the server stops or fails.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *observability.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if logger != nil {
			logger.LogRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
		}
	})
}

// DefaultPolicy is the admission policy applied to free-form chat text.
func DefaultPolicy() *governance.DefaultPolicyEngine {
	pol := governance.NewDefaultPolicyEngine()
	// Keep obviously abusive prompt-steering out of the planner.
	_ = pol.DenyText(`(?i)ignore (all )?previous instructions`)
	_ = pol.DenyText(`(?i)system prompt`)
	return pol
}
