// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/export"
	"github.com/jeranaias/settlesmart/internal/pipeline"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
	"github.com/jeranaias/settlesmart/internal/prompt"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// MaxRequestBodySize bounds every request body (64 KiB).
	MaxRequestBodySize = 64 * 1024

	// Version is reported by /health when Options.Version is empty.
	Version = "dev"

	// PlanDegradedHeader is set on /api/plan responses carrying the
	// fallback plan.
	PlanDegradedHeader = "X-Plan-Degraded"
)

// User-facing messages. Details stay in the server log.
const (
	msgInvalidBody   = "Invalid request body."
	msgBodyTooLarge  = "Request body too large."
	msgMissingKey    = "Server is missing completion API key."
	msgUpstream      = "Completion service error."
	msgUnreachable   = "Completion service unreachable."
	msgInternal      = "Internal server error."
	msgUnknownFormat = "Unsupported export format."
)

// ============================================================================
// SERVER
// ============================================================================

// Generator produces a plan for a submitted profile.
type Generator interface {
	Generate(ctx context.Context, raw profile.Raw) (pipeline.Result, error)
}

// Options configures the server.
type Options struct {
	Addr string

	// CORS allowed origins. Empty uses DefaultCORSConfig.
	AllowedOrigins []string

	// TrustedProxies may set forwarded client IP headers. Nil uses
	// DefaultTrustedProxies.
	TrustedProxies []string

	// RateLimit is requests per second per client. Zero disables limiting.
	RateLimit float64
	RateBurst int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CompletionConfigured is reported by /health.
	CompletionConfigured bool

	// DefaultExportFormat is used when /api/export has no format parameter.
	DefaultExportFormat string

	Version string
	Logger  *zap.Logger
}

// Server is the plan HTTP API.
type Server struct {
	opts      Options
	generator Generator
	router    *http.ServeMux
	handler   http.Handler
	ips       *ClientIPResolver
	limiter   *RateLimiter
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a server that serves plans from generator.
func New(generator Generator, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Version == "" {
		opts.Version = Version
	}
	if opts.DefaultExportFormat == "" {
		opts.DefaultExportFormat = "md"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 90 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ips, err := NewClientIPResolver(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		generator: generator,
		router:    http.NewServeMux(),
		ips:       ips,
		logger:    logger.Named("server"),
		now:       time.Now,
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, opts.RateBurst)
	}

	cors := DefaultCORSConfig()
	if len(opts.AllowedOrigins) > 0 {
		cors.AllowedOrigins = opts.AllowedOrigins
	}

	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(cors),
		LoggingMiddleware(s.logger, s.ips),
		RateLimitMiddleware(s.limiter, s.ips, s.logger),
	)(s.router)

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/plan", s.handlePlan)
	s.router.HandleFunc("POST /api/progress", s.handleProgress)
	s.router.HandleFunc("POST /api/export", s.handleExport)
	s.router.HandleFunc("GET /api/schema", s.handleSchema)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// ============================================================================
// PLAN HANDLER
// ============================================================================

// handlePlan handles POST /api/plan.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var raw profile.Raw
	if !s.decodeBody(w, r, &raw) {
		return
	}

	res, err := s.generator.Generate(r.Context(), raw)
	if err != nil {
		status, msg := errorStatus(err)
		s.logger.Error("plan request failed",
			zap.Int("status", status),
			zap.Error(err),
			zap.String("request_id", RequestIDFromContext(r.Context())))
		writeError(w, status, msg)
		return
	}

	if res.Degraded() {
		w.Header().Set(PlanDegradedHeader, "true")
	}
	writeJSON(w, http.StatusOK, res.Plan)
}

// errorStatus maps a generation error onto a status code and a generic
// message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		return http.StatusInternalServerError, msgMissingKey
	case errors.Is(err, pipeline.ErrUpstream):
		return http.StatusBadGateway, msgUpstream
	case errors.Is(err, pipeline.ErrTransport):
		return http.StatusGatewayTimeout, msgUnreachable
	}
	return http.StatusInternalServerError, msgInternal
}

// ============================================================================
// PROGRESS HANDLER
// ============================================================================

// ProgressRequest is the body of POST /api/progress.
type ProgressRequest struct {
	Plan      plan.Plan `json:"plan"`
	Completed []string  `json:"completed"`
}

// ProgressResponse adds per-week figures to the overall progress.
type ProgressResponse struct {
	checklist.Progress
	Weeks []checklist.WeekProgress `json:"weeks"`
}

// handleProgress handles POST /api/progress.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	done := checklist.NewCompletion(req.Completed...)
	writeJSON(w, http.StatusOK, ProgressResponse{
		Progress: checklist.Project(req.Plan, done),
		Weeks:    checklist.ProjectWeeks(req.Plan, done),
	})
}

// ============================================================================
// EXPORT HANDLER
// ============================================================================

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	Plan      plan.Plan   `json:"plan"`
	Profile   profile.Raw `json:"profile"`
	Completed []string    `json:"completed"`
	Compact   bool        `json:"compact"`
}

// handleExport handles POST /api/export?format=txt|md|json|html.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.opts.DefaultExportFormat
	}

	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgUnknownFormat)
		return
	}

	var req ExportRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	opts.Compact = req.Compact

	doc := &export.Document{
		Plan:        req.Plan,
		Profile:     profile.Validator{Now: s.now}.Validate(req.Profile),
		Completion:  checklist.NewCompletion(req.Completed...),
		GeneratedAt: s.now().UTC(),
	}
	body, err := exporter.Export(doc)
	if err != nil {
		s.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s%s"`, export.DefaultFileName, exporter.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ============================================================================
// SCHEMA AND HEALTH HANDLERS
// ============================================================================

// handleSchema handles GET /api/schema.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prompt.RelocationPlanSchema())
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Completion string `json:"completion"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "ok",
		Version:    s.opts.Version,
		Completion: "configured",
	}
	if !s.opts.CompletionConfigured {
		health.Status = "degraded"
		health.Completion = "not_configured"
	}
	writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server starting",
		zap.String("addr", ln.Addr().String()),
		zap.String("version", s.opts.Version),
		zap.Bool("completion_configured", s.opts.CompletionConfigured))
	if !s.opts.CompletionConfigured {
		s.logger.Error("completion API key is not configured; plan requests will fail")
	}

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. A Serve call that starts
// afterwards returns immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeBody reads a size-limited JSON body into v. It writes the error
// response and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		s.logger.Debug("invalid request body",
			zap.String("path", r.URL.Path),
			zap.Error(err),
			zap.String("request_id", RequestIDFromContext(r.Context())))
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
