// Package health serves the /health readiness probe.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/landing/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check probes one dependency and returns nil when it is usable.
type Check func(ctx context.Context) error

// Response is the JSON body of the probe.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DefaultTimeout bounds each check when Handler is given no timeout.
const DefaultTimeout = 3 * time.Second

// Handler runs every check concurrently and answers 200 with
// {"status":"ok"} or 503 with {"status":"error"} and the per-check
// results. With no checks it is a plain liveness probe. A nil Check
// counts as ok.
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]string, len(checks))
			failed  bool
		)
		for name, check := range checks {
			if check == nil {
				results[name] = "ok"
				continue
			}
			wg.Add(1)
			go func(name string, check Check) {
				defer wg.Done()
				err := check(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					results[name] = "ok"
					return
				}
				failed = true
				results[name] = "error: " + err.Error()
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			}(name, check)
		}
		wg.Wait()

		if failed {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

// Mount attaches GET /health to r.
func Mount(r chi.Router, checks map[string]Check, timeout time.Duration, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, timeout, logger))
}
