package middleware

import (
	"net/http"

	"github.com/dalemusser/landing/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies the configured CORS policy, or nothing when
// enable_cors is false. It is mounted on the JSON API only; the page and
// its form are same-origin.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return passthrough
	}
	c := coreCfg.CORS

	headers := c.CORSAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   c.CORSAllowedMethods,
		AllowedHeaders:   headers,
		ExposedHeaders:   c.CORSExposedHeaders,
		AllowCredentials: c.CORSAllowCredentials,
		MaxAge:           c.CORSMaxAge,
	})
}
