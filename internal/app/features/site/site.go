// Package site serves the practice landing page and its contact form.
package site

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dalemusser/landing/httputil"
	"github.com/dalemusser/landing/inquiry"
	"github.com/dalemusser/landing/metrics"
	"github.com/dalemusser/landing/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// formTargets maps the htmx target id to the snippet that re-renders it.
var formTargets = map[string]string{"contact-form": "contact_form"}

// RateLimitedMessage is shown on the form when a visitor posts too often.
const RateLimitedMessage = "You have sent several messages in a short time. Please wait a minute and try again."

// Config configures a Site.
type Config struct {
	Content *Content
	// Sender delivers acknowledged inquiries. Nil acknowledges locally.
	Sender inquiry.Sender
	// Practitioner is named in the acknowledgment; defaults to the
	// practice name.
	Practitioner string
	Logger       *zap.Logger
}

// Site renders the landing page and handles contact submissions.
type Site struct {
	content *Content
	sender  inquiry.Sender
	ack     string
	engine  *templates.Engine
	assets  *templates.Assets
	logger  *zap.Logger
}

// New compiles the templates and fingerprints the static assets.
func New(cfg Config) (*Site, error) {
	if cfg.Content == nil {
		return nil, errors.New("site: content is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	assets, err := templates.NewAssets(static, "/static")
	if err != nil {
		return nil, err
	}

	engine := templates.New(template.FuncMap{"asset": assets.URL}, logger)
	err = engine.Boot(
		templates.Set{Name: "shared", FS: templateFS, Patterns: []string{"templates/shared/*.gohtml"}},
		templates.Set{Name: "pages", FS: templateFS, Patterns: []string{"templates/pages/*.gohtml"}},
	)
	if err != nil {
		return nil, err
	}

	practitioner := cfg.Practitioner
	if practitioner == "" {
		practitioner = cfg.Content.Practice.Name
	}

	return &Site{
		content: cfg.Content,
		sender:  cfg.Sender,
		ack:     inquiry.Acknowledgment(practitioner),
		engine:  engine,
		assets:  assets,
		logger:  logger,
	}, nil
}

// Middleware lets the caller wrap the contact endpoints. Nil entries
// are skipped.
type Middleware struct {
	// RateLimit guards both contact endpoints.
	RateLimit func(http.Handler) http.Handler
	// CORS wraps the /api routes.
	CORS func(http.Handler) http.Handler
	// RequireJSON guards POST /api/contact.
	RequireJSON func(http.Handler) http.Handler
}

func use(r chi.Router, mws ...func(http.Handler) http.Handler) chi.Router {
	for _, mw := range mws {
		if mw != nil {
			r = r.With(mw)
		}
	}
	return r
}

// Mount registers the page, form, API and static routes on r.
func (s *Site) Mount(r chi.Router, mw Middleware) {
	r.Get("/", s.home)
	r.Head("/", s.home)
	use(r, mw.RateLimit).Post("/contact", s.contact)
	r.Handle("/static/*", s.assets.Handler())

	r.Route("/api", func(api chi.Router) {
		if mw.CORS != nil {
			api.Use(mw.CORS)
		}
		use(api, mw.RateLimit, mw.RequireJSON).Post("/contact", s.apiContact)
	})
}

func (s *Site) page(title string, fv formView) pageData {
	return pageData{
		Title:   title,
		Content: s.content,
		Menu:    MenuClosed,
		Form:    fv,
	}
}

func (s *Site) title() string {
	return s.content.Practice.Name + " | " + s.content.Practice.Credentials
}

func (s *Site) emptyForm() formView {
	return newFormView(s.content, inquiry.Draft{}, inquiry.Result{})
}

// home renders the page with a fresh, empty draft.
func (s *Site) home(w http.ResponseWriter, r *http.Request) {
	s.engine.Render(w, http.StatusOK, "home", s.page(s.title(), s.emptyForm()))
}

// NotFound renders the HTML 404 page.
func (s *Site) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.engine.Render(w, http.StatusNotFound, "not_found", s.page("Page not found | "+s.content.Practice.Name, s.emptyForm()))
	})
}

// RateLimited renders the form with its values and a rate-limit notice.
func (s *Site) RateLimited() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := inquiry.NewForm()
		if err := r.ParseForm(); err == nil {
			fillForm(form, r)
		}
		fv := newFormView(s.content, form.Draft(), inquiry.Result{})
		fv.Error = RateLimitedMessage
		s.engine.RenderAuto(w, r, http.StatusTooManyRequests, "home", formTargets, s.page(s.title(), fv))
	})
}

func fillForm(f *inquiry.Form, r *http.Request) {
	for _, field := range inquiry.Fields {
		_ = f.Set(field, r.PostForm.Get(string(field)))
	}
}

// submit runs one submission and records its outcome.
func (s *Site) submit(r *http.Request, form *inquiry.Form, via string) inquiry.Outcome {
	out := form.Submit(r.Context(), s.sender)
	metrics.InquiryOutcome(out.Status.String())

	fields := []zap.Field{
		zap.String("via", via),
		zap.String("outcome", out.Status.String()),
	}
	switch out.Status {
	case inquiry.StatusInvalid:
		names := make([]string, 0, len(out.Result.Errors))
		for _, e := range out.Result.Errors {
			names = append(names, string(e.Field))
		}
		s.logger.Info("inquiry rejected", append(fields, zap.String("fields", strings.Join(names, ",")))...)
	case inquiry.StatusDeliveryFailed:
		s.logger.Error("inquiry delivery failed", append(fields, zap.String("inquiry_id", out.Inquiry.ID), zap.Error(out.Err))...)
	default:
		s.logger.Info("inquiry acknowledged", append(fields, zap.String("inquiry_id", out.Inquiry.ID))...)
	}
	return out
}

// contact handles the urlencoded form post. htmx-style requests that
// target the form get only the re-rendered form; others the full page.
func (s *Site) contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	form := inquiry.NewForm(inquiry.WithAcknowledgment(s.ack))
	fillForm(form, r)
	out := s.submit(r, form, "form")

	fv := newFormView(s.content, form.Draft(), form.Errors())
	status := http.StatusOK
	switch out.Status {
	case inquiry.StatusInvalid:
		status = http.StatusUnprocessableEntity
	case inquiry.StatusDeliveryFailed:
		status = http.StatusBadGateway
		fv.Error = inquiry.DeliveryFailedMessage
	case inquiry.StatusAcknowledged:
		fv.Acknowledgment = out.Acknowledgment
	}

	s.engine.RenderAuto(w, r, status, "home", formTargets, s.page(s.title(), fv))
}

// ContactResponse is the JSON body of an acknowledged API submission.
type ContactResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// apiContact handles JSON submissions.
func (s *Site) apiContact(w http.ResponseWriter, r *http.Request) {
	var d inquiry.Draft
	if err := httputil.BindJSON(r, &d); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	form := inquiry.NewForm(inquiry.WithAcknowledgment(s.ack))
	form.Fill(d)
	out := s.submit(r, form, "api")

	switch out.Status {
	case inquiry.StatusInvalid:
		httputil.ValidationError(w, out.Result.ByField())
	case inquiry.StatusDeliveryFailed:
		httputil.JSONError(w, http.StatusBadGateway, "delivery_failed", inquiry.DeliveryFailedMessage)
	default:
		httputil.WriteJSON(w, http.StatusOK, ContactResponse{
			Status:  out.Status.String(),
			Message: out.Acknowledgment,
			ID:      out.Inquiry.ID,
		})
	}
}
