package bootstrap

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/landing/config"
	"github.com/dalemusser/landing/delivery"
	"github.com/dalemusser/landing/delivery/email"
	"github.com/dalemusser/landing/delivery/rabbitmq"
	"github.com/dalemusser/landing/delivery/sqs"
	"github.com/dalemusser/landing/delivery/webhook"
)

// EnvPrefix prefixes every environment variable: LANDING_HTTP_PORT.
const EnvPrefix = "LANDING"

// appKeys are the landing-specific settings, read alongside the core
// keys with the same precedence.
var appKeys = []config.AppKey{
	{Name: "practitioner", Default: "", Desc: "Name used in the acknowledgment (default: practice name from content)"},
	{Name: "content_file", Default: "", Desc: "YAML file overriding the embedded page content"},

	{Name: "delivery_mode", Default: delivery.ModeLog, Desc: "Where inquiries go: " + strings.Join(delivery.Modes, ", ")},
	{Name: "delivery_timeout", Default: "15s", Desc: "Timeout for one delivery attempt"},

	{Name: "smtp_host", Default: "", Desc: "SMTP server host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "smtp_ssl", Default: false, Desc: "Use implicit TLS instead of STARTTLS"},
	{Name: "mail_from", Default: "", Desc: "From address of inquiry emails"},
	{Name: "mail_from_name", Default: "", Desc: "From display name of inquiry emails"},
	{Name: "mail_to", Default: []string{}, Desc: "Recipients of inquiry emails"},
	{Name: "mail_subject_prefix", Default: "", Desc: "Subject prefix of inquiry emails"},

	{Name: "webhook_url", Default: "", Desc: "Endpoint receiving inquiry JSON"},
	{Name: "webhook_secret", Default: "", Desc: "HMAC-SHA256 signing secret", Secret: true},

	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL", Secret: true},
	{Name: "amqp_exchange", Default: "", Desc: "Exchange to publish to (empty: default exchange)"},
	{Name: "amqp_routing_key", Default: "inquiries", Desc: "Routing key"},
	{Name: "amqp_queue", Default: "inquiries", Desc: "Durable queue declared and bound on startup"},

	{Name: "sqs_queue_url", Default: "", Desc: "SQS queue URL"},
	{Name: "sqs_region", Default: "", Desc: "AWS region (default: from the environment)"},
	{Name: "sqs_endpoint", Default: "", Desc: "Custom SQS endpoint, e.g. LocalStack"},
	{Name: "sqs_access_key", Default: "", Desc: "Static AWS access key", Secret: true},
	{Name: "sqs_secret_key", Default: "", Desc: "Static AWS secret key", Secret: true},
	{Name: "sqs_group_id", Default: "", Desc: "Message group for FIFO queues"},

	{Name: "contact_rate", Default: 5, Desc: "Contact posts allowed per client per contact_window (0 disables)"},
	{Name: "contact_window", Default: "1m", Desc: "Rate limit window"},
	{Name: "contact_burst", Default: 3, Desc: "Back-to-back posts allowed before the rate applies (in-memory limiter)"},
	{Name: "redis_url", Default: "", Desc: "Redis URL; shares rate limits across instances", Secret: true},
}

// AppConfig is the typed form of appKeys.
type AppConfig struct {
	Practitioner string
	ContentFile  string

	Delivery delivery.Config

	ContactRate   int
	ContactWindow time.Duration
	ContactBurst  int
	RedisURL      string
}

// newAppConfig converts and validates the loaded values.
func newAppConfig(v config.AppConfigValues) (AppConfig, error) {
	cfg := AppConfig{
		Practitioner: v.String("practitioner"),
		ContentFile:  v.String("content_file"),
		Delivery: delivery.Config{
			Mode:    strings.ToLower(v.String("delivery_mode")),
			Timeout: v.Duration("delivery_timeout", 15*time.Second),
			Email: email.Config{
				Host:          v.String("smtp_host"),
				Port:          v.Int("smtp_port"),
				Username:      v.String("smtp_username"),
				Password:      v.String("smtp_password"),
				UseSSL:        v.Bool("smtp_ssl"),
				FromAddress:   v.String("mail_from"),
				FromName:      v.String("mail_from_name"),
				To:            v.StringSlice("mail_to"),
				SubjectPrefix: v.String("mail_subject_prefix"),
			},
			Webhook: webhook.Config{
				URL:    v.String("webhook_url"),
				Secret: v.String("webhook_secret"),
			},
			RabbitMQ: rabbitmq.Config{
				URL:        v.String("amqp_url"),
				Exchange:   v.String("amqp_exchange"),
				RoutingKey: v.String("amqp_routing_key"),
				Queue:      v.String("amqp_queue"),
			},
			SQS: sqs.Config{
				QueueURL:  v.String("sqs_queue_url"),
				Region:    v.String("sqs_region"),
				Endpoint:  v.String("sqs_endpoint"),
				AccessKey: v.String("sqs_access_key"),
				SecretKey: v.String("sqs_secret_key"),
				GroupID:   v.String("sqs_group_id"),
			},
		},
		ContactRate:   v.Int("contact_rate"),
		ContactWindow: v.Duration("contact_window", time.Minute),
		ContactBurst:  v.Int("contact_burst"),
		RedisURL:      v.String("redis_url"),
	}
	if cfg.Delivery.Mode == "" {
		cfg.Delivery.Mode = delivery.ModeLog
	}

	var problems []string
	if !slices.Contains(delivery.Modes, cfg.Delivery.Mode) {
		problems = append(problems, fmt.Sprintf("delivery_mode %q (want one of %s)", cfg.Delivery.Mode, strings.Join(delivery.Modes, ", ")))
	}
	problems = append(problems, modeProblems(cfg.Delivery)...)
	if cfg.ContactRate < 0 {
		problems = append(problems, "contact_rate must be >= 0")
	}
	if cfg.ContactWindow <= 0 {
		problems = append(problems, "contact_window must be > 0")
	}
	if len(problems) > 0 {
		return cfg, fmt.Errorf("invalid app config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// modeProblems lists the settings the selected mode is missing.
func modeProblems(c delivery.Config) []string {
	need := func(val, key string) []string {
		if strings.TrimSpace(val) == "" {
			return []string{key + " is required for delivery_mode=" + c.Mode}
		}
		return nil
	}
	switch c.Mode {
	case delivery.ModeEmail:
		p := append(need(c.Email.Host, "smtp_host"), need(c.Email.FromAddress, "mail_from")...)
		if len(c.Email.To) == 0 {
			p = append(p, "mail_to is required for delivery_mode=email")
		}
		return p
	case delivery.ModeWebhook:
		return need(c.Webhook.URL, "webhook_url")
	case delivery.ModeRabbitMQ:
		return need(c.RabbitMQ.URL, "amqp_url")
	case delivery.ModeSQS:
		return need(c.SQS.QueueURL, "sqs_queue_url")
	}
	return nil
}
