package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/middleware/ratelimit"
	"finplan/internal/middleware/security"
	"finplan/internal/middleware/trace"
)

// ProjectionAPI is the slice of the projection service the handlers use.
type ProjectionAPI interface {
	Project(ctx context.Context, householdID int64, patch core.InputsPatch) (core.FinancialProjection, error)
	ProjectInputs(ctx context.Context, inputs core.ProjectionInputs, patch core.InputsPatch) (core.FinancialProjection, error)
	RequestRefresh(ctx context.Context, householdID int64, patch *core.InputsPatch) error
	LatestRun(ctx context.Context, householdID int64) (core.ProjectionRun, error)
}

// ReadinessFunc reports whether backing stores are reachable.
type ReadinessFunc func(ctx context.Context) error

// ServerConfig holds the knobs of the HTTP layer.
type ServerConfig struct {
	RateLimitPerMinute int
	Ready              ReadinessFunc
	RequestTimeout     time.Duration
}

// Server wraps http.Server with the projection API routes.
type Server struct {
	http.Server

	api          ProjectionAPI
	ready        ReadinessFunc
	timeout      time.Duration
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, api ProjectionAPI, config ServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	limitConfig := ratelimit.DefaultConfig()
	if config.RateLimitPerMinute > 0 {
		limitConfig.RequestsPerMinute = config.RateLimitPerMinute
	}

	s := &Server{
		api:      api,
		ready:    config.Ready,
		timeout:  config.RequestTimeout,
		limiter:  ratelimit.NewLimiter(limitConfig),
		detector: security.NewDetector(),
		logger:   logger.WithComponent(log.ComponentHTTP),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/households/{id}/projection", s.handleGetProjection)
	mux.HandleFunc("POST /api/households/{id}/projection", s.handlePostProjection)
	mux.HandleFunc("POST /api/projections", s.handleProjectInputs)
	mux.HandleFunc("POST /api/households/{id}/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/households/{id}/runs/latest", s.handleLatestRun)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, limitConfig.Methods, s.onRateLimited)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.NewFields().
			WithClientIP(s.detector.ExtractClientIP(r)).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			ToSlice()...)
	writeJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
