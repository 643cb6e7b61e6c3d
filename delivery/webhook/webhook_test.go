package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/landing/inquiry"
)

func TestSender_SignsAndPosts(t *testing.T) {
	const secret = "s3cret"
	fixed := time.Unix(1767225600, 0)

	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts, err := strconv.ParseInt(r.Header.Get(DefaultTimestampHeader), 10, 64)
		if err != nil {
			t.Errorf("timestamp header: %v", err)
		}
		if !Verify(ts, body, secret, r.Header.Get(DefaultSignatureHeader), time.Minute, fixed) {
			t.Error("signature did not verify")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := NewSender(Config{URL: srv.URL, Secret: secret})
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return fixed }

	in := inquiry.Inquiry{ID: "inq_1", Name: "Jordan", Email: "j@example.com"}
	if err := s.Send(context.Background(), in); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if got.Type != EventType || got.Inquiry.ID != "inq_1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestSender_SingleAttemptOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, _ := NewSender(Config{URL: srv.URL})
	err := s.Send(context.Background(), inquiry.Inquiry{ID: "inq_2"})

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want StatusError 503", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSender_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(DefaultSignatureHeader) != "" {
			t.Error("unexpected signature header")
		}
	}))
	defer srv.Close()

	s, _ := NewSender(Config{URL: srv.URL})
	if err := s.Send(context.Background(), inquiry.Inquiry{}); err != nil {
		t.Errorf("Send() = %v", err)
	}
}

func TestNewSender_RequiresURL(t *testing.T) {
	if _, err := NewSender(Config{}); err == nil {
		t.Error("expected error for missing url")
	}
}

func TestVerify_RejectsStaleTimestamp(t *testing.T) {
	now := time.Unix(2000, 0)
	body := []byte(`{}`)
	sig := Sign(1000, body, "k")
	if Verify(1000, body, "k", sig, time.Minute, now) {
		t.Error("stale timestamp accepted")
	}
	if !Verify(1000, body, "k", sig, time.Hour, now) {
		t.Error("fresh timestamp rejected")
	}
	if Verify(1000, body, "other", sig, time.Hour, now) {
		t.Error("wrong secret accepted")
	}
}
