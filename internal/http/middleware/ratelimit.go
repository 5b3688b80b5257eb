package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/nexus-crm/internal/config"
	"github.com/tendant/nexus-crm/internal/httputil"
)

// Limiter groups.
const (
	LimitAuth   = "auth"
	LimitAPI    = "api"
	LimitSearch = "search"
)

// RateLimitConfig holds the budget for one limiter group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// PerTenant keys the budget by the signed-in user instead of the client
	// IP. Requests without a principal fall back to the IP.
	PerTenant bool
	Logger    *slog.Logger
}

// RateLimit creates a rate limiter middleware that logs rejections.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	key := httprate.KeyByIP
	if cfg.PerTenant {
		key = keyByTenant
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

func keyByTenant(r *http.Request) (string, error) {
	if tenantID, ok := GetTenantID(r.Context()); ok {
		return "tenant:" + tenantID.String(), nil
	}
	return httprate.KeyByIP(r)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters builds the limiter for each group. Signup and login are
// limited per IP; the authenticated groups per tenant.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimitAuth:   noOp,
			LimitAPI:    noOp,
			LimitSearch: noOp,
		}
	}

	window := func(minutes int) time.Duration { return time.Duration(minutes) * time.Minute }

	return map[string]func(http.Handler) http.Handler{
		LimitAuth: RateLimit(RateLimitConfig{
			Requests: cfg.AuthRequestsPerMinute,
			Window:   window(cfg.AuthWindowMinutes),
			Logger:   logger,
		}),
		LimitAPI: RateLimit(RateLimitConfig{
			Requests:  cfg.APIRequestsPerMinute,
			Window:    window(cfg.APIWindowMinutes),
			PerTenant: true,
			Logger:    logger,
		}),
		LimitSearch: RateLimit(RateLimitConfig{
			Requests:  cfg.SearchRequestsPerMinute,
			Window:    window(cfg.SearchWindowMinutes),
			PerTenant: true,
			Logger:    logger,
		}),
	}
}
