package templates

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// IsHTMX reports whether r was issued by htmx or the page script that
// speaks its headers.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Render writes template name with status. On a template error it logs
// and answers 500 instead.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderAuto renders the snippet mapped to the request's HX-Target, or
// the full page when the request is not an htmx swap of a known target.
func (e *Engine) RenderAuto(w http.ResponseWriter, r *http.Request, status int, page string, targets map[string]string, data any) {
	if IsHTMX(r) {
		if snip, ok := targets[r.Header.Get("HX-Target")]; ok && snip != "" {
			w.Header().Add("Vary", "HX-Request")
			e.Render(w, status, snip, data)
			return
		}
	}
	e.Render(w, status, page, data)
}
