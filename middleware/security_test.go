package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/landing/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestSecureDefaults(t *testing.T) {
	rec := serve(SecureDefaults()(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Frame-Options":        "SAMEORIGIN",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"X-XSS-Protection":       "1; mode=block",
		"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS sent over plain HTTP: %q", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name string
		opts SecurityHeadersOptions
		want string
	}{
		{"subdomains", SecurityHeadersOptions{HSTSMaxAge: 600, HSTSIncludeSubDomains: true}, "max-age=600; includeSubDomains"},
		{"preload", SecurityHeadersOptions{HSTSMaxAge: 600, HSTSIncludeSubDomains: true, HSTSPreload: true}, "max-age=600; includeSubDomains; preload"},
		{"bare", SecurityHeadersOptions{HSTSMaxAge: 60}, "max-age=60"},
		{"disabled", SecurityHeadersOptions{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.TLS = &tls.ConnectionState{}
			rec := serve(SecurityHeaders(tt.opts)(okHandler), req)
			if got := rec.Header().Get("Strict-Transport-Security"); got != tt.want {
				t.Errorf("HSTS = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders_EmptyDisables(t *testing.T) {
	opts := DefaultSecurityHeadersOptions()
	opts.XFrameOptions = ""
	opts.ContentSecurityPolicy = ""

	rec := serve(SecurityHeaders(opts)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"X-Frame-Options", "Content-Security-Policy"} {
		if _, ok := rec.Header()[h]; ok {
			t.Errorf("%s should not be set", h)
		}
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options missing")
	}
}

func TestSecurityHeadersFromConfig(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		rec := serve(SecurityHeadersFromConfig(nil)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("X-Frame-Options") != "" {
			t.Error("nil config should not set headers")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.CoreConfig{}
		cfg.Security.XFrameOptions = "DENY"
		rec := serve(SecurityHeadersFromConfig(cfg)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("X-Frame-Options") != "" {
			t.Error("disabled config should not set headers")
		}
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := &config.CoreConfig{}
		cfg.Security = config.SecurityConfig{
			EnableSecurityHeaders: true,
			XFrameOptions:         "DENY",
			ContentSecurityPolicy: "default-src 'none'",
			HSTSMaxAge:            100,
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.TLS = &tls.ConnectionState{}
		rec := serve(SecurityHeadersFromConfig(cfg)(okHandler), req)

		if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Errorf("X-Frame-Options = %q", got)
		}
		if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'none'" {
			t.Errorf("CSP = %q", got)
		}
		if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=100" {
			t.Errorf("HSTS = %q", got)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
