package middleware

import (
	"net/http"
	"strings"

	"github.com/dalemusser/landing/httputil"
	"go.uber.org/zap"
)

// wantsJSON is true for /api/ paths and clients that accept JSON.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// routingError answers requests chi could not route. Browsers get page
// when it is set; page must write status itself.
type routingError struct {
	logger *zap.Logger
	status int
	code   string
	text   string
	page   http.Handler
}

func (e routingError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.logger.Debug(e.code,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_ip", r.RemoteAddr),
	)
	switch {
	case wantsJSON(r):
		httputil.JSONError(w, e.status, e.code, e.text)
	case e.page != nil:
		e.page.ServeHTTP(w, r)
	default:
		http.Error(w, e.text, e.status)
	}
}

// NotFoundHandler answers 404 with JSON for API clients and page for
// everyone else.
func NotFoundHandler(logger *zap.Logger, page http.Handler) http.HandlerFunc {
	return routingError{
		logger: orNop(logger),
		status: http.StatusNotFound,
		code:   "not_found",
		text:   "The requested resource was not found",
		page:   page,
	}.ServeHTTP
}

// MethodNotAllowedHandler answers 405.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return routingError{
		logger: orNop(logger),
		status: http.StatusMethodNotAllowed,
		code:   "method_not_allowed",
		text:   "The requested method is not allowed for this resource",
	}.ServeHTTP
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
