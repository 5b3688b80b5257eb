package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/nexus-crm/internal/config"
	httpserver "github.com/tendant/nexus-crm/internal/http"
	"github.com/tendant/nexus-crm/internal/metrics"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/dashboard"
	"github.com/tendant/nexus-crm/pkg/pipeline"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
	"github.com/tendant/nexus-crm/pkg/search"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}

	ctx := context.Background()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStores()

	var revoked auth.RevocationList
	if cfg.HasRedis() {
		client, err := newRedisClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		revoked = auth.NewRedisRevocationList(client)
		logger.Info("redis revocation list enabled", "addr", cfg.RedisAddr)
	}

	// Initialize services
	identityService, err := auth.NewIdentityService(stores.Users, auth.IdentityOptions{
		BcryptCost:           cfg.BcryptCost,
		Policy:               auth.NewPasswordPolicy(cfg.PasswordPolicy),
		BlockDisposableEmail: cfg.Validation.BlockDisposableEmail,
	}, logger)
	if err != nil {
		logger.Error("failed to create identity service", "error", err)
		os.Exit(1)
	}
	sessionService := auth.NewSessionService(auth.SessionConfig{
		TTL:       cfg.SessionTTL,
		JWTSecret: []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
	}, revoked)

	recorder := metrics.Recorder{}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Stores:          stores,
		IdentityService: identityService,
		SessionService:  sessionService,
		Engine:          pipeline.NewEngine(stores.Deals, recorder, logger),
		Search:          search.NewAggregator(stores, recorder),
		Dashboard:       dashboard.NewAggregator(stores),
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
		CookieName:      cfg.CookieName,
		CookieSecure:    cfg.CookieSecure,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Stores, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStores(), func() {}, nil
	}

	db, err := repository.NewDB(ctx, repository.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return repository.Stores{}, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return repository.Stores{}, nil, err
	}
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	return repository.NewPostgresStores(db), func() { db.Close() }, nil
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
