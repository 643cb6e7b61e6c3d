package ratelimit

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/landing/httputil"
	"github.com/dalemusser/landing/metrics"
	"go.uber.org/zap"
)

// Store decides whether key may make another request.
type Store interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// KeyFunc extracts the limit key from a request.
type KeyFunc func(r *http.Request) string

// ClientIP keys on RemoteAddr without its port. Behind a proxy run
// chi's RealIP first so RemoteAddr holds the client address.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Config configures Middleware.
type Config struct {
	Store   Store
	KeyFunc KeyFunc // default ClientIP
	Logger  *zap.Logger

	// OnLimited writes the refusal for non-API requests. The default is
	// a plain-text 429.
	OnLimited http.Handler
}

// Middleware refuses requests over the limit with 429 and Retry-After.
// Paths under /api/ get a JSON error. Store errors let the request
// through and are logged.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		if cfg.Store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyFunc(r)
			ok, retry, err := cfg.Store.Allow(r.Context(), key)
			if err != nil {
				cfg.Logger.Warn("rate limit store failed; allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimited()
			cfg.Logger.Info("rate limited",
				zap.String("path", r.URL.Path),
				zap.Duration("retry_after", retry),
			)

			w.Header().Set("Retry-After", retryAfterSeconds(retry))
			switch {
			case strings.HasPrefix(r.URL.Path, "/api/"):
				httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited",
					"Too many requests. Please try again shortly.")
			case cfg.OnLimited != nil:
				cfg.OnLimited.ServeHTTP(w, r)
			default:
				http.Error(w, "Too many requests. Please try again shortly.", http.StatusTooManyRequests)
			}
		})
	}
}

func retryAfterSeconds(d time.Duration) string {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
