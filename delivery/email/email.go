// Package email delivers inquiries to the practitioner's inbox over SMTP.
// It wraps github.com/wneessen/go-mail.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/dalemusser/landing/inquiry"
	"github.com/wneessen/go-mail"
)

// ErrNoRecipients is returned when no practitioner address is configured.
var ErrNoRecipients = errors.New("email: no recipients configured")

// Config holds SMTP server configuration.
type Config struct {
	// Host is the SMTP server hostname.
	Host string

	// Port is the SMTP server port (587 for STARTTLS, 465 for SSL).
	Port int

	Username string
	Password string

	// FromAddress is the envelope sender. Inquiries are sent from the
	// practice, with Reply-To set to the visitor.
	FromAddress string
	FromName    string

	// To lists the practitioner addresses that receive inquiries.
	To []string

	// SubjectPrefix is prepended to every subject line.
	SubjectPrefix string

	// UseSSL enables implicit TLS (port 465). Otherwise STARTTLS is
	// mandatory.
	UseSSL bool

	// Timeout for SMTP operations (default: 30 seconds).
	Timeout time.Duration
}

// Sender sends each inquiry as a multipart text/HTML email.
type Sender struct {
	cfg Config
}

// NewSender validates cfg and applies defaults.
func NewSender(cfg Config) (*Sender, error) {
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("email: smtp host is required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("email: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Port == 465 {
		cfg.UseSSL = true
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "[Website inquiry]"
	}
	return &Sender{cfg: cfg}, nil
}

// Send composes and delivers one inquiry.
func (s *Sender) Send(ctx context.Context, in inquiry.Inquiry) error {
	m, err := s.message(in)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

// message builds the outgoing mail without touching the network.
func (s *Sender) message(in inquiry.Inquiry) (*mail.Msg, error) {
	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}
	// The visitor's address passed the loose form check only; a reply-to
	// go-mail rejects is dropped rather than failing the delivery.
	_ = m.ReplyToFormat(in.Name, in.Email)

	m.Subject(Subject(s.cfg.SubjectPrefix, in))

	text, html, err := Render(in)
	if err != nil {
		return nil, err
	}
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, html)
	return m, nil
}

// Subject returns the subject line for in.
func Subject(prefix string, in inquiry.Inquiry) string {
	return strings.TrimSpace(prefix + " " + in.Name)
}

var textBody = template.Must(template.New("text").Parse(`New inquiry from the website

Name:           {{.Name}}
Phone:          {{.Phone}}
Email:          {{.Email}}
Preferred time: {{.PreferredTime}}
Received:       {{.ReceivedAt.Format "2006-01-02 15:04 MST"}}
Reference:      {{.ID}}

What brings them here:
{{.Message}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<h2>New inquiry from the website</h2>
<table>
<tr><th align="left">Name</th><td>{{.Name}}</td></tr>
<tr><th align="left">Phone</th><td>{{.Phone}}</td></tr>
<tr><th align="left">Email</th><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
<tr><th align="left">Preferred time</th><td>{{.PreferredTime}}</td></tr>
<tr><th align="left">Received</th><td>{{.ReceivedAt.Format "2006-01-02 15:04 MST"}}</td></tr>
</table>
<h3>What brings them here</h3>
<p style="white-space: pre-wrap">{{.Message}}</p>
<p style="color:#888">Reference {{.ID}}</p>
`))

// Render returns the plain-text and HTML bodies for in. Visitor input is
// escaped in the HTML body.
func Render(in inquiry.Inquiry) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textBody.Execute(&tb, in); err != nil {
		return "", "", fmt.Errorf("email: render text body: %w", err)
	}
	if err := htmlBody.Execute(&hb, in); err != nil {
		return "", "", fmt.Errorf("email: render html body: %w", err)
	}
	return tb.String(), hb.String(), nil
}
