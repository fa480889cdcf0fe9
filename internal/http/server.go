package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"

	"finboard/internal/auth"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
	appweb "finboard/web"
)

// SummaryService computes the read-only finance views.
type SummaryService interface {
	ComputeSummary(ctx context.Context, userID int64, period core.Period) (core.Summary, error)
	ProjectedSavings(ctx context.Context, userID int64) (core.Projection, error)
}

// RecordService manages the user's income and expense records.
type RecordService interface {
	CreateIncome(ctx context.Context, userID int64, in core.Income) (core.Income, error)
	CreateExpense(ctx context.Context, userID int64, e core.Expense) (core.Expense, error)
	ListIncome(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Income, error)
	ListExpenses(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Expense, error)
	GetIncome(ctx context.Context, userID, id int64) (core.Income, error)
	GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	UpdateIncome(ctx context.Context, userID, id int64, patch services.RecordPatch) (core.Income, error)
	UpdateExpense(ctx context.Context, userID, id int64, patch services.RecordPatch) (core.Expense, error)
	DeleteIncome(ctx context.Context, userID, id int64) error
	DeleteExpense(ctx context.Context, userID, id int64) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Finance SummaryService
	Records RecordService
	Gate    *auth.Gate
	DB      Pinger
	Logger  *log.Logger
}

// Server wraps http.Server with the finboard routes and middleware.
type Server struct {
	http.Server

	finance   SummaryService
	records   RecordService
	gate      *auth.Gate
	db        Pinger
	logger    *log.Logger
	templates *template.Template

	mux          *http.ServeMux
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	metrics      *Metrics
	cookieSecure bool
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
		StaleAfter:        10 * time.Minute,
	})

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		finance:      deps.Finance,
		records:      deps.Records,
		gate:         deps.Gate.WithErrorWriter(writeAPIError),
		db:           deps.DB,
		logger:       logger.WithComponent(log.ComponentHTTP),
		templates:    t,
		mux:          http.NewServeMux(),
		limiter:      limiter,
		detector:     detector,
		metrics:      NewMetrics(limiter, detector),
		cookieSecure: cfg.CookieSecure,
		startedAt:    time.Now(),
	}

	s.routes()
	s.Handler = s.chain(cfg.CORSAllowedOrigins)
	return s, nil
}

func (s *Server) routes() {
	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	s.handle("GET /healthz", http.HandlerFunc(s.handleHealth))
	s.handle("GET /readyz", http.HandlerFunc(s.handleReady))
	s.handle("GET /metrics", s.metrics.Handler())

	s.handle("GET /{$}", http.RedirectHandler("/graphs/visuals", http.StatusSeeOther))
	s.handle("GET /graphs/visuals", s.gate.RequireUserPage(http.HandlerFunc(s.handleVisuals)))

	s.handle("GET /auth/login", http.HandlerFunc(s.handleLoginPage))
	s.handle("POST /auth/login", s.limited(http.HandlerFunc(s.handleLogin)))
	s.handle("POST /auth/register", s.limited(http.HandlerFunc(s.handleRegister)))
	s.handle("POST /auth/logout", http.HandlerFunc(s.handleLogout))

	s.handle("GET /api/finance/summary", s.api(s.handleSummary))
	s.handle("GET /api/finance/overview", s.api(s.handleOverview))
	s.handle("GET /api/finance/savings/projected", s.api(s.handleProjectedSavings))

	s.handle("GET /api/income", s.api(s.handleListIncome))
	s.handle("POST /api/income", s.api(s.handleCreateIncome))
	s.handle("GET /api/income/{id}", s.api(s.handleGetIncome))
	s.handle("PUT /api/income/{id}", s.api(s.handleUpdateIncome))
	s.handle("PATCH /api/income/{id}", s.api(s.handleUpdateIncome))
	s.handle("DELETE /api/income/{id}", s.api(s.handleDeleteIncome))
	s.handle("GET /api/expenses", s.api(s.handleListExpenses))
	s.handle("POST /api/expenses", s.api(s.handleCreateExpense))
	s.handle("GET /api/expenses/{id}", s.api(s.handleGetExpense))
	s.handle("PUT /api/expenses/{id}", s.api(s.handleUpdateExpense))
	s.handle("PATCH /api/expenses/{id}", s.api(s.handleUpdateExpense))
	s.handle("DELETE /api/expenses/{id}", s.api(s.handleDeleteExpense))
}

// handle registers h and labels the request with its pattern for metrics.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), pattern)
		h.ServeHTTP(w, r)
	}))
}

// api guards a JSON route: rate limited, uncacheable, authenticated.
func (s *Server) api(h http.HandlerFunc) http.Handler {
	return s.limited(security.NoStore(s.gate.RequireUser(h)))
}

func (s *Server) limited(h http.Handler) http.Handler {
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(h)
}

// chain wraps the mux with the cross-cutting middleware. Outermost first:
// tracing, suspicious request logging, security headers, CORS for /api/.
func (s *Server) chain(origins []string) http.Handler {
	var h http.Handler = s.mux

	if len(origins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		})
		withCORS := c.Handler(s.mux)
		mux := s.mux
		h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				withCORS.ServeHTTP(w, r)
				return
			}
			mux.ServeHTTP(w, r)
		})
	}

	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(s.logger)(h)
	h = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP, s.metrics).Middleware(h)
	return h
}

// writeAPIError lets the auth gate reject requests with the API's own
// error envelope.
func writeAPIError(w http.ResponseWriter, status int, msg string) {
	ErrorResponse(status, msg).Write(w)
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
