// Package router builds the chi router with the standard middleware stack
// every route on the site runs behind.
package router

import (
	"net/http"

	"github.com/dalemusser/landing/config"
	"github.com/dalemusser/landing/logging"
	"github.com/dalemusser/landing/metrics"
	"github.com/dalemusser/landing/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// quietPaths are logged at debug level; probes and assets would
// otherwise drown the access log.
var quietPaths = []string{"/health", "/metrics", "/static/"}

// New returns a chi.Router with, in order:
//   - RequestID, RealIP and panic recovery
//   - request body limit (max_request_body_bytes)
//   - Prometheus HTTP metrics and access logging
//   - security headers and compression from config
//   - NotFound / MethodNotAllowed handlers
//
// notFound renders the HTML 404 page; nil falls back to plain text.
// Routes, CORS and rate limits are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger, notFound http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger, quietPaths...))

	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))

	r.NotFound(middleware.NotFoundHandler(logger, notFound))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
