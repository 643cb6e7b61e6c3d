package middleware

import (
	"net/http"

	"github.com/dalemusser/landing/httputil"
)

// RequireJSON answers 415 with a JSON error unless the request carries a
// JSON Content-Type (application/json or any +json type).
func RequireJSON() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httputil.IsJSON(r) {
				httputil.JSONError(w, http.StatusUnsupportedMediaType,
					"unsupported_media_type",
					"Content-Type must be application/json",
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
