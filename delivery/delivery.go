// Package delivery selects and builds the channel that carries validated
// inquiries to the practitioner.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/landing/delivery/email"
	"github.com/dalemusser/landing/delivery/rabbitmq"
	"github.com/dalemusser/landing/delivery/sqs"
	"github.com/dalemusser/landing/delivery/webhook"
	"github.com/dalemusser/landing/inquiry"
	"go.uber.org/zap"
)

// Delivery modes.
const (
	ModeLog      = "log"
	ModeEmail    = "email"
	ModeWebhook  = "webhook"
	ModeRabbitMQ = "rabbitmq"
	ModeSQS      = "sqs"
)

// Modes lists every supported mode.
var Modes = []string{ModeLog, ModeEmail, ModeWebhook, ModeRabbitMQ, ModeSQS}

// ErrUnknownMode is returned for a mode not in Modes.
var ErrUnknownMode = errors.New("delivery: unknown mode")

// Config selects a mode and carries the settings of every mode. Only the
// selected mode's settings are read.
type Config struct {
	Mode string

	// Timeout bounds one Send call (default: 15 seconds).
	Timeout time.Duration

	Email    email.Config
	Webhook  webhook.Config
	RabbitMQ rabbitmq.Config
	SQS      sqs.Config
}

// Backend is a ready-to-use delivery channel.
type Backend struct {
	Mode   string
	Sender inquiry.Sender

	// Check probes the channel for /health. It is nil when the mode has
	// nothing to probe.
	Check func(ctx context.Context) error

	closeFn func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b == nil || b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// New builds the backend for cfg.Mode. An empty mode means ModeLog.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = ModeLog
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	b := &Backend{Mode: mode}

	switch mode {
	case ModeLog:
		logger.Warn("delivery_mode=log: inquiries are acknowledged but not delivered anywhere")
		b.Sender = inquiry.LogSender{Logger: logger}

	case ModeEmail:
		ec := cfg.Email
		if ec.Timeout == 0 {
			ec.Timeout = timeout
		}
		s, err := email.NewSender(ec)
		if err != nil {
			return nil, err
		}
		b.Sender = s
		logger.Info("delivery via email",
			zap.String("smtp_host", ec.Host),
			zap.Int("recipients", len(ec.To)))

	case ModeWebhook:
		wc := cfg.Webhook
		if wc.Timeout == 0 {
			wc.Timeout = timeout
		}
		s, err := webhook.NewSender(wc)
		if err != nil {
			return nil, err
		}
		b.Sender = s
		if wc.Secret == "" {
			logger.Warn("webhook delivery is unsigned; set webhook_secret")
		}
		logger.Info("delivery via webhook", zap.String("url", wc.URL))

	case ModeRabbitMQ:
		p, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		b.Sender = p
		b.Check = p.Check
		b.closeFn = p.Close
		logger.Info("delivery via rabbitmq",
			zap.String("exchange", cfg.RabbitMQ.Exchange),
			zap.String("queue", cfg.RabbitMQ.Queue))

	case ModeSQS:
		s, err := sqs.Connect(ctx, cfg.SQS)
		if err != nil {
			return nil, err
		}
		b.Sender = s
		b.Check = s.Check
		logger.Info("delivery via sqs", zap.String("queue_url", cfg.SQS.QueueURL))

	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownMode, cfg.Mode, strings.Join(Modes, ", "))
	}

	b.Sender = WithTimeout(b.Sender, timeout)
	return b, nil
}

// WithTimeout bounds every Send on s by d.
func WithTimeout(s inquiry.Sender, d time.Duration) inquiry.Sender {
	return inquiry.SenderFunc(func(ctx context.Context, in inquiry.Inquiry) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return s.Send(ctx, in)
	})
}

// Observer receives the duration and result of every delivery.
type Observer func(mode string, elapsed time.Duration, err error)

// Observe wraps s so each Send is reported to obs.
func Observe(s inquiry.Sender, mode string, obs Observer) inquiry.Sender {
	if obs == nil {
		return s
	}
	return inquiry.SenderFunc(func(ctx context.Context, in inquiry.Inquiry) error {
		start := time.Now()
		err := s.Send(ctx, in)
		obs(mode, time.Since(start), err)
		return err
	})
}
