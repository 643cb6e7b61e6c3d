// Package webhook delivers inquiries as signed JSON POSTs.
//
// The body is signed with HMAC-SHA256 over "<timestamp>.<body>", hex
// encoded, in the X-Webhook-Signature header; the unix timestamp goes in
// X-Webhook-Timestamp. Receivers recompute the signature with the shared
// secret and reject stale timestamps.
//
// Each inquiry gets exactly one attempt. Any 2xx response is success.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/landing/inquiry"
)

const (
	DefaultSignatureHeader = "X-Webhook-Signature"
	DefaultTimestampHeader = "X-Webhook-Timestamp"
	DefaultUserAgent       = "Landing-Webhook/1.0"

	// EventType is the event name carried in every payload.
	EventType = "inquiry.received"
)

// Config configures the webhook sender.
type Config struct {
	// URL is the endpoint that receives inquiries.
	URL string

	// Secret signs outgoing payloads. If empty, requests are unsigned.
	Secret string

	SignatureHeader string
	TimestampHeader string
	UserAgent       string

	// Timeout bounds the single delivery attempt (default: 10 seconds).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Headers are added to every request.
	Headers map[string]string
}

// Payload is the JSON body POSTed to the endpoint.
type Payload struct {
	Type    string          `json:"type"`
	Inquiry inquiry.Inquiry `json:"inquiry"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook: received status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook: received status %d: %s", e.StatusCode, e.Body)
}

// Sender posts inquiries to one endpoint.
type Sender struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewSender validates cfg and applies defaults.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = DefaultSignatureHeader
	}
	if cfg.TimestampHeader == "" {
		cfg.TimestampHeader = DefaultTimestampHeader
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Sender{cfg: cfg, client: client, now: time.Now}, nil
}

// Send posts in once and returns an error unless the endpoint answers 2xx.
func (s *Sender) Send(ctx context.Context, in inquiry.Inquiry) error {
	body, err := json.Marshal(Payload{Type: EventType, Inquiry: in})
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	if s.cfg.Secret != "" {
		ts := s.now().Unix()
		req.Header.Set(s.cfg.SignatureHeader, Sign(ts, body, s.cfg.Secret))
		req.Header.Set(s.cfg.TimestampHeader, strconv.FormatInt(ts, 10))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<payload>".
func Sign(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload and the timestamp is
// within tolerance of now.
func Verify(timestamp int64, payload []byte, secret, signature string, tolerance time.Duration, now time.Time) bool {
	ts := time.Unix(timestamp, 0)
	if ts.Before(now.Add(-tolerance)) || ts.After(now.Add(tolerance)) {
		return false
	}
	return hmac.Equal([]byte(Sign(timestamp, payload, secret)), []byte(signature))
}
