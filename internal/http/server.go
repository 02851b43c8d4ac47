package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "painel/internal/log"
	"painel/internal/middleware/ratelimit"
	"painel/internal/middleware/security"
	"painel/internal/middleware/trace"
	"painel/internal/ports"
	"painel/internal/services"
	appweb "painel/web"
)

// loadTimeout bounds every dashboard and list load.
const loadTimeout = 7 * time.Second

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store      ports.Store
	Dashboard  *services.DashboardService
	Companies  *services.CompanyService
	Records    *services.RecordService
	Selections *services.Selections
	Logger     *applog.Logger
	// Registry receives every collector; a fresh one is created when nil.
	Registry *prometheus.Registry
}

type Options struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// Years offered by the record form's quarter selector.
	FirstYear, LastYear int
}

type Server struct {
	http.Server
	templates *template.Template

	deps     Deps
	opts     Options
	logger   *applog.Logger
	slog     *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	metrics  *appMetrics
	started  time.Time

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer parses the embedded templates, wires the middleware chain and
// registers every route. The rate limiter's cleanup runs until Shutdown.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	t, err := template.New("painel").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := deps.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		templates: t,
		deps:      deps,
		opts:      opts,
		logger:    logger,
		slog:      applog.NewStructuredLogger(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}, deps.Registry),
		detector:  security.NewDetector(deps.Registry),
		metrics:   newAppMetrics(deps.Registry, deps.Dashboard.CacheStats),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux, deps.Registry)

	var handler http.Handler = mux
	handler = s.limitMutations(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger, trace.NewMetrics(deps.Registry)).Middleware(handler)
	handler = applog.Middleware(deps.Logger)(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.limiter.Run(ctx)

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, reg *prometheus.Registry) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /dashboard/{companyID}", s.handleDashboard)

	mux.HandleFunc("GET /companies", s.handleCompaniesPage)
	mux.HandleFunc("POST /companies", s.handleCreateCompany)
	mux.HandleFunc("GET /companies/{id}/edit", s.handleEditCompany)
	mux.HandleFunc("POST /companies/{id}", s.handleUpdateCompany)
	mux.HandleFunc("PUT /companies/{id}", s.handleUpdateCompany)
	mux.HandleFunc("DELETE /companies/{id}", s.handleDeleteCompany)

	mux.HandleFunc("GET /companies/{id}/records", s.handleRecordsPage)
	mux.HandleFunc("POST /companies/{id}/records", s.handleCreateRecord)
	mux.HandleFunc("GET /records/{id}/edit", s.handleEditRecord)
	mux.HandleFunc("POST /records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("PUT /records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /records/{id}", s.handleDeleteRecord)

	mux.HandleFunc("GET /companies/{id}/charts/{field}", s.handleChart)

	mux.Handle("/api/", s.corsHandler()(s.apiRoutes()))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}

func (s *Server) apiRoutes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/catalog", s.handleAPICatalog)
	api.HandleFunc("GET /api/companies", s.handleAPICompanies)
	api.HandleFunc("GET /api/companies/{id}/records", s.handleAPIRecords)
	api.HandleFunc("GET /api/companies/{id}/comparisons", s.handleAPIComparisons)
	return api
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

// limitMutations applies the rate limiter to writes only; page loads and
// API reads are not throttled.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// Shutdown stops background work and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
