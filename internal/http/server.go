package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"proyeksi/internal/cache"
	"proyeksi/internal/core"
	"proyeksi/internal/middleware/ratelimit"
	"proyeksi/internal/middleware/security"
	"proyeksi/internal/middleware/trace"
	"proyeksi/internal/store"
)

// Options configures the API server.
type Options struct {
	Addr            string
	JWTSecret       string
	CORSOrigin      string
	RateLimitPerMin int
	RateLimitBurst  int
	// TrustedProxies are extra CIDR ranges whose forwarded headers are
	// honored, on top of the private-network defaults.
	TrustedProxies  []string
	ReportCacheSize int
	ReportCacheTTL  time.Duration
}

type Server struct {
	http.Server
	store      store.EntityStore
	jwtSecret  string
	corsOrigin string

	detector    *security.Detector
	headers     *security.HeadersMiddleware
	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	// Cached report aggregates, purged on every write.
	reportCache        *cache.LRUCache[core.Report]
	projectReportCache *cache.LRUCache[core.ProjectReport]
	cacheManager       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, st store.EntityStore) *Server {
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 64
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s := &Server{
		store:      st,
		jwtSecret:  opts.JWTSecret,
		corsOrigin: opts.CORSOrigin,

		detector: detector,
		headers:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
			Burst:             opts.RateLimitBurst,
		}),

		reportCache:        cache.NewLRUCache[core.Report](opts.ReportCacheSize, opts.ReportCacheTTL),
		projectReportCache: cache.NewLRUCache[core.ProjectReport](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager:       cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.Register(s.projectReportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /api/projects", s.requireAuth(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.requireAuth(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.requireAuth(s.handleGetProject))
	mux.HandleFunc("PUT /api/projects/{id}", s.requireAuth(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.requireAuth(s.handleDeleteProject))

	mux.HandleFunc("GET /api/tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireAuth(s.handleDeleteTask))

	mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/users", s.requireAuth(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.requireAuth(s.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", s.requireAuth(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", s.requireAuth(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.requireAuth(s.handleDeleteUser))

	mux.HandleFunc("GET /api/company", s.requireAuth(s.handleGetCompany))
	mux.HandleFunc("PUT /api/company", s.requireAuth(s.handleSaveCompany))

	mux.HandleFunc("GET /api/reports", s.requireAuth(s.handleReport))
	mux.HandleFunc("GET /api/reports/project/{projectId}", s.requireAuth(s.handleProjectReport))
	mux.HandleFunc("GET /api/reports/export", s.requireAuth(s.handleReportExport))

	mux.HandleFunc("GET /api/stats", s.requireAuth(s.handleStats))

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = s.withCORS(handler)
	handler = s.headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	return handler
}

// withCORS answers preflight requests and stamps the configured origin.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if s.corsOrigin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit throttles mutating requests per client IP. Reads stay
// unlimited; probe traffic gets logged either way.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"method", r.Method, "path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}

		if r.Method != http.MethodGet && r.Method != http.MethodOptions {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// invalidateReports drops every cached aggregate. Called after any write since
// each entity kind feeds the report.
func (s *Server) invalidateReports() {
	s.reportCache.Purge()
	s.projectReportCache.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The store is the only hard dependency.
	if _, err := s.store.GetSettings(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleStats reports operational counters for dashboards and debugging.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	requests := s.tracer.GetMetrics()
	detection := s.detector.GetMetrics()
	writeData(w, http.StatusOK, map[string]any{
		"totalRequests":        requests.TotalRequests,
		"lastResponseMicros":   requests.AverageResponseTime,
		"suspiciousRequests":   detection.SuspiciousRequests,
		"rateLimitedClients":   s.rateLimiter.ActiveClients(),
		"cachedReports":        s.reportCache.Size(),
		"cachedProjectReports": s.projectReportCache.Size(),
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
