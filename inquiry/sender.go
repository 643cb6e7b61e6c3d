package inquiry

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Sender delivers a validated inquiry to the practitioner. A nil error
// means the inquiry was accepted by the delivery channel.
type Sender interface {
	Send(ctx context.Context, in Inquiry) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, in Inquiry) error

// Send calls f(ctx, in).
func (f SenderFunc) Send(ctx context.Context, in Inquiry) error {
	return f(ctx, in)
}

// LogSender accepts every inquiry and only records that it arrived.
// Nothing leaves the process, so inquiries are effectively dropped; use it
// for development or until a real delivery channel is configured.
//
// Message content is never logged, only its shape.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs inquiry metadata at warn level and returns nil.
func (s LogSender) Send(ctx context.Context, in Inquiry) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("inquiry accepted but not delivered (delivery_mode=log)",
		zap.String("inquiry_id", in.ID),
		zap.Time("received_at", in.ReceivedAt),
		zap.Int("message_chars", utf8.RuneCountInString(in.Message)),
		zap.Bool("has_phone", in.Phone != ""),
	)
	return nil
}
