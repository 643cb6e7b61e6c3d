package site

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/landing/inquiry"
	"github.com/dalemusser/landing/middleware"
	"github.com/go-chi/chi/v5"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []inquiry.Inquiry
	err  error
}

func (s *recordingSender) Send(_ context.Context, in inquiry.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, in)
	return nil
}

func newTestSite(t *testing.T, sender inquiry.Sender) http.Handler {
	t.Helper()
	content, err := DefaultContent()
	if err != nil {
		t.Fatalf("DefaultContent: %v", err)
	}
	s, err := New(Config{Content: content, Sender: sender})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.NotFound(s.NotFound().ServeHTTP)
	s.Mount(r, Middleware{RequireJSON: middleware.RequireJSON()})
	return r
}

func validForm() url.Values {
	return url.Values{
		"name":           {"Ada Lovelace"},
		"phone":          {"(323) 555-0100"},
		"email":          {"ada@example.com"},
		"message":        {"Looking for help with stress."},
		"preferredTime":  {"Weekday mornings"},
		"agreeToContact": {"on"},
	}
}

func postForm(h http.Handler, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Target", "contact-form")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	h := newTestSite(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Dr. Serena Blake",
		"Book a Free Consultation",
		"Anxiety &amp; Stress Management",
		"Couples sessions: $240",
		`<details class="faq-item" name="faq" id="faq-insurance">`,
		`id="contact-form"`,
		`placeholder="Your full name"`,
		`data-menu="closed"`,
		`aria-expanded="false"`,
		"/static/css/site.css?v=",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home missing %q", want)
		}
	}
	for _, id := range []string{"hero", "about", "services", "faq", "contact"} {
		if !strings.Contains(body, `id="`+id+`"`) {
			t.Errorf("section %q missing", id)
		}
	}
	if strings.Contains(body, "field-error") {
		t.Error("fresh page shows field errors")
	}
}

func TestContact_Acknowledged(t *testing.T) {
	sender := &recordingSender{}
	h := newTestSite(t, sender)

	rec := postForm(h, validForm(), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.HasPrefix(strings.TrimSpace(body), "<form") {
		t.Errorf("htmx request should get the form fragment, got %q", body[:40])
	}
	if !strings.Contains(body, "Thank you for your message. Dr. Serena Blake will contact you soon!") {
		t.Error("acknowledgment missing")
	}
	if strings.Contains(body, "Ada Lovelace") || strings.Contains(body, " checked") {
		t.Error("draft not reset after acknowledgment")
	}
	if len(sender.sent) != 1 || sender.sent[0].Email != "ada@example.com" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestContact_Invalid(t *testing.T) {
	sender := &recordingSender{}
	h := newTestSite(t, sender)

	form := validForm()
	form.Set("email", "not-an-email")
	form.Del("agreeToContact")

	rec := postForm(h, form, false)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<html") {
		t.Error("plain post should get the full page")
	}
	for _, want := range []string{"Email is invalid", "You must agree to be contacted", `value="Ada Lovelace"`, `aria-invalid="true"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "Name is required") {
		t.Error("valid field reported an error")
	}
	if len(sender.sent) != 0 {
		t.Error("invalid draft was delivered")
	}
}

func TestContact_DeliveryFailed(t *testing.T) {
	h := newTestSite(t, &recordingSender{err: errors.New("smtp down")})

	rec := postForm(h, validForm(), true)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "could not be sent") {
		t.Error("delivery failure message missing")
	}
	if !strings.Contains(body, `value="Ada Lovelace"`) {
		t.Error("draft not preserved after delivery failure")
	}
	if strings.Contains(body, "smtp down") {
		t.Error("internal error leaked to the page")
	}
}

func TestAPIContact(t *testing.T) {
	sender := &recordingSender{}
	h := newTestSite(t, sender)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("acknowledged", func(t *testing.T) {
		rec := post(`{"name":"Ada","phone":"1","email":"a@b.c","message":"hi","preferredTime":"am","agreeToContact":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		var resp ContactResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != "acknowledged" || !strings.HasPrefix(resp.ID, "inq_") {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		rec := post(`{}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Error  string            `json:"error"`
			Errors map[string]string `json:"errors"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error != "validation_failed" || len(resp.Errors) != 6 {
			t.Errorf("resp = %+v", resp)
		}
		if resp.Errors["message"] != "This field is required" {
			t.Errorf("message error = %q", resp.Errors["message"])
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if rec := post(`{"nickname":"x"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRateLimited(t *testing.T) {
	content, _ := DefaultContent()
	s, err := New(Config{Content: content})
	if err != nil {
		t.Fatal(err)
	}
	form := validForm()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "contact-form")
	rec := httptest.NewRecorder()
	s.RateLimited().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), RateLimitedMessage) || !strings.Contains(rec.Body.String(), `value="Ada Lovelace"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNotFoundAndStatic(t *testing.T) {
	h := newTestSite(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Page not found") {
		t.Errorf("404 = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/site.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "HX-Request") {
		t.Errorf("static js = %d", rec.Code)
	}
}

func TestMenuState(t *testing.T) {
	if MenuClosed.Toggle() != MenuOpen || MenuOpen.Toggle() != MenuClosed {
		t.Error("Toggle")
	}
	if MenuOpen.String() != "open" || MenuClosed.Expanded() != "false" {
		t.Error("String/Expanded")
	}
}

func TestLoadContent(t *testing.T) {
	c, err := LoadContent("")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Services.Items) != 3 || len(c.FAQ.Items) != 5 || len(c.About.Highlights) != 4 {
		t.Errorf("content counts: services=%d faq=%d highlights=%d",
			len(c.Services.Items), len(c.FAQ.Items), len(c.About.Highlights))
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "content.yaml")
	os.WriteFile(bad, []byte("practice:\n  name: X\n  unknown: 1\nnav:\n  - {id: a, label: A}\n"), 0o644)
	if _, err := LoadContent(bad); err == nil {
		t.Error("expected error for unknown key")
	}

	dup := filepath.Join(dir, "dup.yaml")
	os.WriteFile(dup, []byte("practice: {name: X}\nnav: [{id: a, label: A}]\nfaq:\n  items:\n    - {id: q}\n    - {id: q}\n"), 0o644)
	if _, err := LoadContent(dup); err == nil || !strings.Contains(err.Error(), "duplicated") {
		t.Errorf("dup err = %v", err)
	}

	if _, err := LoadContent(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
