package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/nexus-crm/internal/config"
	"github.com/tendant/nexus-crm/internal/http/features/account"
	"github.com/tendant/nexus-crm/internal/http/features/clients"
	dashboardfeature "github.com/tendant/nexus-crm/internal/http/features/dashboard"
	"github.com/tendant/nexus-crm/internal/http/features/deals"
	"github.com/tendant/nexus-crm/internal/http/features/notes"
	searchfeature "github.com/tendant/nexus-crm/internal/http/features/search"
	"github.com/tendant/nexus-crm/internal/http/features/settings"
	"github.com/tendant/nexus-crm/internal/http/features/tasks"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/dashboard"
	"github.com/tendant/nexus-crm/pkg/pipeline"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/search"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Stores          repository.Stores
	IdentityService *auth.IdentityService
	SessionService  *auth.SessionService
	Engine          *pipeline.Engine
	Search          *search.Aggregator
	Dashboard       *dashboard.Aggregator
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	CookieName      string
	CookieSecure    bool // Whether to use Secure flag on cookies (should be true for HTTPS)
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	requireAuth := middleware.Auth(cfg.SessionService, cfg.CookieName)

	cookieConfig := httputil.DefaultCookieConfig(cfg.CookieName)
	cookieConfig.Secure = cfg.CookieSecure

	accountHandler := account.NewHandler(cfg.Logger, cfg.IdentityService, cfg.SessionService, cookieConfig)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitAuth])
		r.Post("/v1/auth/signup", accountHandler.Signup)
		r.Post("/v1/auth/login", accountHandler.Login)
	})

	settingsHandler := settings.NewHandler(cfg.Logger, cfg.IdentityService, cfg.SessionService, cookieConfig)
	clientsHandler := clients.NewHandler(cfg.Logger, cfg.Stores.Clients)
	notesHandler := notes.NewHandler(cfg.Logger, cfg.Stores.Notes)
	dealsHandler := deals.NewHandler(cfg.Logger, cfg.Stores.Deals, cfg.Engine)
	tasksHandler := tasks.NewHandler(cfg.Logger, cfg.Stores.Tasks)
	searchHandler := searchfeature.NewHandler(cfg.Logger, cfg.Search)
	dashboardHandler := dashboardfeature.NewHandler(cfg.Logger, cfg.Dashboard)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.With(rateLimiters[middleware.LimitSearch]).Get("/v1/search", searchHandler.Search)

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters[middleware.LimitAPI])

			r.Post("/v1/auth/refresh", accountHandler.Refresh)
			r.Post("/v1/auth/logout", accountHandler.Logout)
			r.Get("/v1/me", accountHandler.Me)
			r.Patch("/v1/settings", settingsHandler.Update)
			r.Get("/v1/dashboard", dashboardHandler.Summary)

			r.Route("/v1/clients", func(r chi.Router) {
				r.Get("/", clientsHandler.List)
				r.Post("/", clientsHandler.Create)
				r.Get("/{id}", clientsHandler.Get)
				r.Patch("/{id}", clientsHandler.Update)
				r.Delete("/{id}", clientsHandler.Delete)
				r.Get("/{id}/notes", notesHandler.List)
				r.Post("/{id}/notes", notesHandler.Create)
				r.Delete("/{id}/notes/{noteID}", notesHandler.Delete)
			})

			r.Route("/v1/deals", func(r chi.Router) {
				r.Get("/", dealsHandler.List)
				r.Post("/", dealsHandler.Create)
				r.Get("/board", dealsHandler.Board)
				r.Get("/{id}", dealsHandler.Get)
				r.Patch("/{id}", dealsHandler.Update)
				r.Delete("/{id}", dealsHandler.Delete)
				r.Put("/{id}/stage", dealsHandler.SetStage)
				r.Post("/{id}/move", dealsHandler.Move)
			})

			r.Route("/v1/tasks", func(r chi.Router) {
				r.Get("/", tasksHandler.List)
				r.Post("/", tasksHandler.Create)
				r.Get("/{id}", tasksHandler.Get)
				r.Patch("/{id}", tasksHandler.Update)
				r.Delete("/{id}", tasksHandler.Delete)
			})
		})
	})

	return r
}
