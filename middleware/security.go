// Package middleware holds the HTTP middleware the router stack is built
// from: security headers, compression, CORS, body limits, content-type
// checks and the 404/405 handlers.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/landing/config"
)

// SecurityHeadersOptions configures SecurityHeaders. An empty string
// disables the corresponding header.
type SecurityHeadersOptions struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string

	// XSSProtection is the legacy X-XSS-Protection header.
	XSSProtection string

	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds; 0
	// disables HSTS. The header is only sent on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions returns headers suited to a static page
// with same-origin assets and a same-origin form.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XSSProtection:         "1; mode=block",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'self'; base-uri 'self'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
	}
}

func (o SecurityHeadersOptions) hsts() string {
	if o.HSTSMaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(o.HSTSMaxAge)
	if o.HSTSIncludeSubDomains {
		v += "; includeSubDomains"
	}
	if o.HSTSPreload {
		v += "; preload"
	}
	return v
}

// SecurityHeaders sets the configured headers on every response.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := [][2]string{
		{"X-Frame-Options", opts.XFrameOptions},
		{"X-Content-Type-Options", opts.XContentTypeOptions},
		{"Referrer-Policy", opts.ReferrerPolicy},
		{"X-XSS-Protection", opts.XSSProtection},
		{"Content-Security-Policy", opts.ContentSecurityPolicy},
		{"Permissions-Policy", opts.PermissionsPolicy},
	}
	hsts := opts.hsts()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range static {
				if kv[1] != "" {
					h.Set(kv[0], kv[1])
				}
			}
			// HSTS over plain HTTP is ignored by browsers and breaks local dev.
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig builds SecurityHeaders from the core config.
// A nil config or enable_security_headers=false yields a no-op.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return passthrough
	}
	s := coreCfg.Security
	return SecurityHeaders(SecurityHeadersOptions{
		XFrameOptions:         s.XFrameOptions,
		XContentTypeOptions:   s.XContentTypeOptions,
		ReferrerPolicy:        s.ReferrerPolicy,
		XSSProtection:         s.XSSProtection,
		HSTSMaxAge:            s.HSTSMaxAge,
		HSTSIncludeSubDomains: s.HSTSIncludeSubDomains,
		HSTSPreload:           s.HSTSPreload,
		ContentSecurityPolicy: s.ContentSecurityPolicy,
		PermissionsPolicy:     s.PermissionsPolicy,
	})
}

// SecureDefaults is SecurityHeaders(DefaultSecurityHeadersOptions()).
func SecureDefaults() func(next http.Handler) http.Handler {
	return SecurityHeaders(DefaultSecurityHeadersOptions())
}

func passthrough(next http.Handler) http.Handler { return next }
