package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/landing/delivery/email"
	"github.com/dalemusser/landing/delivery/webhook"
	"github.com/dalemusser/landing/inquiry"
	"go.uber.org/zap"
)

func TestNew_DefaultsToLog(t *testing.T) {
	b, err := New(context.Background(), Config{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Mode != ModeLog {
		t.Errorf("mode = %q, want log", b.Mode)
	}
	if b.Check != nil {
		t.Error("log mode should have no health check")
	}
	if err := b.Sender.Send(context.Background(), inquiry.Inquiry{ID: "inq_1"}); err != nil {
		t.Errorf("Send() = %v", err)
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New(context.Background(), Config{Mode: "carrier-pigeon"}, nil)
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
}

func TestNew_EmailRequiresRecipients(t *testing.T) {
	_, err := New(context.Background(), Config{Mode: "email", Email: email.Config{Host: "smtp.example.com", FromAddress: "a@b.c"}}, nil)
	if !errors.Is(err, email.ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}

func TestNew_Webhook(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b, err := New(context.Background(), Config{Mode: " Webhook ", Webhook: webhook.Config{URL: srv.URL}}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Sender.Send(context.Background(), inquiry.Inquiry{ID: "inq_1"}); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestWithTimeout(t *testing.T) {
	slow := inquiry.SenderFunc(func(ctx context.Context, _ inquiry.Inquiry) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := WithTimeout(slow, 10*time.Millisecond).Send(context.Background(), inquiry.Inquiry{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestObserve(t *testing.T) {
	boom := errors.New("boom")
	var gotMode string
	var gotErr error
	s := Observe(inquiry.SenderFunc(func(context.Context, inquiry.Inquiry) error { return boom }), "email",
		func(mode string, _ time.Duration, err error) {
			gotMode, gotErr = mode, err
		})
	_ = s.Send(context.Background(), inquiry.Inquiry{})
	if gotMode != "email" || !errors.Is(gotErr, boom) {
		t.Errorf("observed mode=%q err=%v", gotMode, gotErr)
	}
}
