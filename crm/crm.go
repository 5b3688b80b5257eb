// Package crm mounts the CRM API inside another Go program.
//
// With PostgreSQL:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	app, err := crm.New(ctx, crm.Config{
//	    DB:        db,
//	    Migrate:   true,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/crm", app.Handler())
//
// Without a DB every record lives in process memory.
package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/nexus-crm/internal/config"
	httpserver "github.com/tendant/nexus-crm/internal/http"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/metrics"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/dashboard"
	"github.com/tendant/nexus-crm/pkg/pipeline"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
	"github.com/tendant/nexus-crm/pkg/search"
)

// Config holds the configuration for an embedded CRM.
type Config struct {
	// DB is a PostgreSQL connection. Nil selects in-memory storage.
	DB *sql.DB

	// Migrate applies the schema to DB before use. Without it the
	// tables must already exist.
	Migrate bool

	// JWTSecret signs session tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in session tokens (default: "nexus-crm").
	JWTIssuer string

	// SessionTTL is the session lifetime (default: 7 days).
	SessionTTL time.Duration

	// CookieName is the session cookie (default: "nexus_session").
	CookieName string

	// Redis shares revoked tokens across instances (optional).
	Redis redis.UniversalClient

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// CRM is an embedded CRM instance.
type CRM struct {
	config   Config
	stores   repository.Stores
	sessions *auth.SessionService
	handler  http.Handler
}

// New creates a CRM. It fails when DB is set and the schema is missing.
func New(ctx context.Context, cfg Config) (*CRM, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	var stores repository.Stores
	if cfg.DB == nil {
		stores = memory.NewStores()
	} else {
		if cfg.Migrate {
			if err := repository.Migrate(ctx, cfg.DB); err != nil {
				return nil, fmt.Errorf("crm: %w", err)
			}
		}
		if err := validateSchema(ctx, cfg.DB); err != nil {
			return nil, err
		}
		stores = repository.NewPostgresStores(cfg.DB)
	}

	var revoked auth.RevocationList
	if cfg.Redis != nil {
		revoked = auth.NewRedisRevocationList(cfg.Redis)
	}

	identity, err := auth.NewIdentityService(stores.Users, auth.IdentityOptions{}, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("crm: %w", err)
	}
	sessions := auth.NewSessionService(auth.SessionConfig{
		TTL:       cfg.SessionTTL,
		JWTSecret: []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
	}, revoked)

	recorder := metrics.Recorder{}
	handler := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          cfg.Logger,
		Stores:          stores,
		IdentityService: identity,
		SessionService:  sessions,
		Engine:          pipeline.NewEngine(stores.Deals, recorder, cfg.Logger),
		Search:          search.NewAggregator(stores, recorder),
		Dashboard:       dashboard.NewAggregator(stores),
		Validation:      config.ValidationConfig{MaxRequestBodyBytes: 1 << 20},
		CookieName:      cfg.CookieName,
	})

	return &CRM{config: cfg, stores: stores, sessions: sessions, handler: handler}, nil
}

// Handler returns the full API: /health, /metrics and /v1/...
// Mount it on a chi router or wrap it in http.StripPrefix.
func (c *CRM) Handler() http.Handler {
	return c.handler
}

// Routes registers the API on mux under prefix:
//
//	mux := http.NewServeMux()
//	app.Routes(mux, "/crm")
func (c *CRM) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, c.handler))
}

// Stores exposes the tenant-scoped stores for advanced usage.
func (c *CRM) Stores() repository.Stores {
	return c.stores
}

// AuthMiddleware validates CRM sessions. Use it to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(app.AuthMiddleware())
//	    r.Get("/reports", handler)
//	})
func (c *CRM) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(c.sessions, c.config.CookieName)
}

// GetUserID extracts the signed-in user from a request.
// Use after AuthMiddleware.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return middleware.GetTenantID(r.Context())
}

func validateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("crm: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("crm: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "nexus-crm"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = auth.DefaultSessionTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "nexus_session"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(ctx context.Context, db *sql.DB) error {
	requiredTables := []string{"users", "clients", "deals", "tasks", "notes"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("crm: missing table %q; set Migrate or apply the schema first", table)
		}
		if err != nil {
			return fmt.Errorf("crm: failed to check schema: %w", err)
		}
	}

	return nil
}
