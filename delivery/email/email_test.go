package email

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/landing/inquiry"
)

func sample() inquiry.Inquiry {
	return inquiry.Inquiry{
		ID:            "inq_20260302T150405_abcdef",
		ReceivedAt:    time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC),
		Name:          "Jordan Lee",
		Phone:         "(323) 555-0100",
		Email:         "jordan@example.com",
		Message:       "Panic attacks <script>alert(1)</script>",
		PreferredTime: "Evenings",
	}
}

func TestNewSender_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no recipients", Config{Host: "smtp.example.com", FromAddress: "site@example.com"}, true},
		{"no host", Config{To: []string{"dr@example.com"}, FromAddress: "site@example.com"}, true},
		{"no from", Config{Host: "smtp.example.com", To: []string{"dr@example.com"}}, true},
		{"ok", Config{Host: "smtp.example.com", FromAddress: "site@example.com", To: []string{"dr@example.com"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSender(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSender() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewSender(Config{}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}

func TestNewSender_Defaults(t *testing.T) {
	s, err := NewSender(Config{Host: "h", FromAddress: "a@b.c", To: []string{"d@e.f"}, Port: 465})
	if err != nil {
		t.Fatal(err)
	}
	if !s.cfg.UseSSL {
		t.Error("port 465 should enable SSL")
	}
	if s.cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", s.cfg.Timeout)
	}
	if s.cfg.SubjectPrefix == "" {
		t.Error("subject prefix not defaulted")
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	text, html, err := Render(sample())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "<script>") {
		t.Error("text body should carry the message verbatim")
	}
	if strings.Contains(html, "<script>") {
		t.Error("html body must escape visitor input")
	}
	for _, want := range []string{"Jordan Lee", "(323) 555-0100", "Evenings", "inq_20260302T150405_abcdef"} {
		if !strings.Contains(text, want) {
			t.Errorf("text body missing %q", want)
		}
	}
}

func TestSender_Message(t *testing.T) {
	s, err := NewSender(Config{
		Host:        "smtp.example.com",
		FromAddress: "site@blakepsychology.com",
		FromName:    "Practice website",
		To:          []string{"serena@blakepsychology.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.message(sample())
	if err != nil {
		t.Fatalf("message() = %v", err)
	}
	if got := m.GetToString(); len(got) != 1 || !strings.Contains(got[0], "serena@blakepsychology.com") {
		t.Errorf("to = %v", got)
	}
	if got := Subject("[Website inquiry]", sample()); got != "[Website inquiry] Jordan Lee" {
		t.Errorf("subject = %q", got)
	}
}
