package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr      string
	ServerPort      int
	ShutdownTimeout time.Duration
	LogLevel        string

	// Storage
	StoreDriver       string
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Sessions
	JWTSecret    string
	JWTIssuer    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool
	BcryptCost   int

	// Token revocation; in-process when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
	PasswordPolicy  PasswordPolicyConfig
}

// RateLimitConfig configures per-IP request limits.
type RateLimitConfig struct {
	Enabled bool

	// Signup and login
	AuthRequestsPerMinute int
	AuthWindowMinutes     int

	// Authenticated API
	APIRequestsPerMinute int
	APIWindowMinutes     int

	// Search is hit on every keystroke
	SearchRequestsPerMinute int
	SearchWindowMinutes     int
}

// SecurityHeadersConfig configures response security headers.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
	// NoStore marks every response Cache-Control: no-store.
	NoStore bool
}

// ValidationConfig bounds request input.
type ValidationConfig struct {
	MaxRequestBodyBytes  int64
	BlockDisposableEmail bool
}

// PasswordPolicyConfig configures password complexity on signup.
type PasswordPolicyConfig struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr:      getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort:      getEnvInt("SERVER_PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		// Database defaults
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "nexus_crm"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		// Session defaults
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "nexus-crm"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		CookieName:   getEnv("COOKIE_NAME", "nexus_session"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimit: RateLimitConfig{
			Enabled:                 getEnvBool("RATE_LIMIT_ENABLED", true),
			AuthRequestsPerMinute:   getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
			AuthWindowMinutes:       getEnvInt("RATE_LIMIT_AUTH_WINDOW_MINUTES", 1),
			APIRequestsPerMinute:    getEnvInt("RATE_LIMIT_API_REQUESTS", 300),
			APIWindowMinutes:        getEnvInt("RATE_LIMIT_API_WINDOW_MINUTES", 1),
			SearchRequestsPerMinute: getEnvInt("RATE_LIMIT_SEARCH_REQUESTS", 120),
			SearchWindowMinutes:     getEnvInt("RATE_LIMIT_SEARCH_WINDOW_MINUTES", 1),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", ""),
			NoStore:            getEnvBool("SECURITY_NO_STORE", true),
		},

		Validation: ValidationConfig{
			MaxRequestBodyBytes:  int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
			BlockDisposableEmail: getEnvBool("BLOCK_DISPOSABLE_EMAIL", false),
		},

		PasswordPolicy: PasswordPolicyConfig{
			MinLength:        getEnvInt("PASSWORD_MIN_LENGTH", 8),
			RequireUppercase: getEnvBool("PASSWORD_REQUIRE_UPPERCASE", false),
			RequireLowercase: getEnvBool("PASSWORD_REQUIRE_LOWERCASE", false),
			RequireNumber:    getEnvBool("PASSWORD_REQUIRE_NUMBER", false),
			RequireSpecial:   getEnvBool("PASSWORD_REQUIRE_SPECIAL", false),
		},
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StoreDriver != StorePostgres && cfg.StoreDriver != StoreMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.StoreDriver)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

// HasRedis returns true if a shared revocation list is configured.
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
