package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"saldo/internal/auth"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/store"
	"saldo/internal/view"
	appweb "saldo/web"
)

// Pinger is the readiness probe of the data backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server is built from. Auth, Stores and
// Formatter are required.
type Deps struct {
	Auth      *auth.Service
	Stores    *store.Registry
	Backend   Pinger
	Formatter *view.Formatter
	Logger    *log.Logger
	// Caches, when set, sweeps the rate limiter's client table.
	Caches             *cache.Manager
	RateLimitPerMinute int
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
	SessionTTL    time.Duration
}

type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	writeFailures   int64
	superseded      int64
}

type Server struct {
	http.Server
	templates *template.Template
	auth      *auth.Service
	stores    *store.Registry
	backend   Pinger
	format    *view.Formatter
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	secureCookies bool
	sessionTTL    time.Duration
	shutdownOnce  sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Stores == nil || deps.Formatter == nil {
		return nil, errors.New("http: auth, stores and formatter are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		auth:          deps.Auth,
		stores:        deps.Stores,
		backend:       deps.Backend,
		format:        deps.Formatter,
		logger:        logger.WithComponent(log.ComponentHTTP),
		secureCookies: deps.SecureCookies,
		sessionTTL:    deps.SessionTTL,
		appMetrics:    appMetrics{uptime: time.Now()},
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 24 * time.Hour
	}

	t, err := parseTemplates(s.format)
	if err != nil {
		return nil, err
	}
	s.templates = t

	s.securityDetector = security.NewDetector(logger)
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute})
	if deps.Caches != nil {
		deps.Caches.Register(s.rateLimiter.Cleaner())
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /signin", s.handleSignInPage)
	mux.HandleFunc("POST /signin", s.handleSignIn)
	mux.HandleFunc("POST /signup", s.handleSignUp)
	mux.HandleFunc("POST /signout", s.handleSignOut)

	mux.HandleFunc("GET /{$}", s.requireSession(s.handleDashboard))
	mux.HandleFunc("GET /ui/charts", s.requireSession(s.handleCharts))

	mux.HandleFunc("POST /expenses", s.requireSession(s.handleCreateExpense))
	mux.HandleFunc("POST /expenses/{id}/delete", s.requireSession(s.handleDeleteExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.requireSession(s.handleDeleteExpense))

	mux.HandleFunc("POST /fixed", s.requireSession(s.handleCreateFixed))
	mux.HandleFunc("POST /fixed/{id}/toggle", s.requireSession(s.handleToggleFixed))
	mux.HandleFunc("POST /fixed/{id}/delete", s.requireSession(s.handleDeleteFixed))
	mux.HandleFunc("DELETE /fixed/{id}", s.requireSession(s.handleDeleteFixed))

	mux.HandleFunc("POST /salary", s.requireSession(s.handleUpdateSalary))
	mux.HandleFunc("POST /categories", s.requireSession(s.handleAddCategory))

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func parseTemplates(f *view.Formatter) (*template.Template, error) {
	funcs := template.FuncMap{
		"money":      f.Money,
		"percent":    f.Percent,
		"monthLabel": core.LongMonthLabel,
	}
	return template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a minute and try again.").
		Header("Retry-After", "60").
		Write(w)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
