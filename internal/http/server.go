package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"forecast/internal/cache"
	applog "forecast/internal/log"
	"forecast/internal/services"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	readinessTimeout         = 5 * time.Second
)

// Deps are the services the server exposes.
type Deps struct {
	Forecast  *services.ForecastService
	Timesheet *services.TimesheetNavigator
	// Ready checks the backing store. Nil means always ready.
	Ready  func(ctx context.Context) error
	Caches *cache.Manager
	Logger *applog.Logger
	// RequestsPerMinute bounds mutating requests per client IP.
	RequestsPerMinute int
	// Now is the clock used by the timesheet endpoint.
	Now func() time.Time
}

type Server struct {
	http.Server
	forecast    *services.ForecastService
	timesheets  *services.TimesheetNavigator
	ready       func(ctx context.Context) error
	caches      *cache.Manager
	logger      *applog.Logger
	rateLimiter *rateLimiter
	security    securityMetrics
	now         func() time.Time
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		forecast:    deps.Forecast,
		timesheets:  deps.Timesheet,
		ready:       deps.Ready,
		caches:      deps.Caches,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(deps.RequestsPerMinute),
		now:         now,
		started:     time.Now(),
	}
	go s.rateLimiter.startCleanup(rateLimitCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/forecast", s.handleForecast)
	mux.HandleFunc("/api/forecast/project", s.handleSelectProject)
	mux.HandleFunc("/api/forecast/cells", s.handleEditCell)
	mux.HandleFunc("/api/forecast/save", s.handleSave)
	mux.HandleFunc("/api/forecast/draft", s.handleDiscard)
	mux.HandleFunc("/api/timesheets/current", s.handleCurrentTimesheet)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// middleware wraps h with request logging, security headers, suspicious
// request rejection and rate limiting of mutating methods.
func (s *Server) middleware(h http.Handler) http.Handler {
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r) {
			atomic.AddInt64(&s.security.suspiciousRequests, 1)
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
			ErrorResponse(http.StatusBadRequest, "bad request").Write(w)
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").
				Header("Retry-After", "60").
				Write(w)
			return
		}

		h.ServeHTTP(w, r)
	})
	return applog.RequestMiddleware(s.logger, generateRequestID, extractClientIP)(guarded)
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
