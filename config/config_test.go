package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var testKeys = []AppKey{
	{Name: "delivery_mode", Default: "log", Desc: "delivery mode"},
	{Name: "contact_burst", Default: 5, Desc: "burst"},
	{Name: "mail_to", Default: []string{}, Desc: "recipients"},
	{Name: "webhook_secret", Default: "", Desc: "secret", Secret: true},
}

// load runs LoadFlags in an empty working directory so stray config or
// .env files never leak into a test.
func load(t *testing.T, args ...string) (*CoreConfig, AppConfigValues, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	return LoadFlags(zap.NewNop(), fs, args, "LANDINGTEST", testKeys)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, app, err := load(t)
	if err != nil {
		t.Fatalf("LoadFlags() = %v", err)
	}
	if cfg.HTTP.HTTPPort != 8080 || cfg.Env != "dev" {
		t.Errorf("port=%d env=%q", cfg.HTTP.HTTPPort, cfg.Env)
	}
	if cfg.HTTP.ShutdownTimeout != 15*time.Second || cfg.HTTP.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("timeouts = %+v", cfg.HTTP)
	}
	if !cfg.Security.EnableSecurityHeaders || cfg.Security.ContentSecurityPolicy == "" {
		t.Errorf("security = %+v", cfg.Security)
	}
	if cfg.CompressionLevel != 5 {
		t.Errorf("compression level = %d", cfg.CompressionLevel)
	}
	if app.String("delivery_mode") != "log" || app.Int("contact_burst") != 5 {
		t.Errorf("app = %v", app)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("LANDINGTEST_HTTP_PORT", "9000")
	t.Setenv("LANDINGTEST_DELIVERY_MODE", "webhook")
	t.Setenv("LANDINGTEST_CONTACT_BURST", "9")

	cfg, app, err := load(t, "--http_port=9100")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.HTTPPort != 9100 {
		t.Errorf("flag should win over env: port = %d", cfg.HTTP.HTTPPort)
	}
	if app.String("delivery_mode") != "webhook" {
		t.Errorf("env should win over default: mode = %q", app.String("delivery_mode"))
	}
	if app.Int("contact_burst") != 9 {
		t.Errorf("burst = %d", app.Int("contact_burst"))
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "http_port: 8181\nshutdown_timeout: 5\ndelivery_mode: email\nmail_to:\n  - a@example.com\n  - b@example.com\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg, app, err := LoadFlags(zap.NewNop(), fs, nil, "LANDINGTEST", testKeys)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.HTTPPort != 8181 {
		t.Errorf("port = %d", cfg.HTTP.HTTPPort)
	}
	if cfg.HTTP.ShutdownTimeout != 5*time.Second {
		t.Errorf("plain seconds: shutdown = %v", cfg.HTTP.ShutdownTimeout)
	}
	if app.String("delivery_mode") != "email" {
		t.Errorf("mode = %q", app.String("delivery_mode"))
	}
	if got := app.StringSlice("mail_to"); len(got) != 2 || got[1] != "b@example.com" {
		t.Errorf("mail_to = %v", got)
	}
}

func TestLoad_ValidationAggregates(t *testing.T) {
	_, _, err := load(t, "--use_https", "--http_port=0", "--compression_level=12", "--write_timeout=soon")
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"missing:", "LANDINGTEST_CERT_FILE", "invalid:", "http_port", "compression_level", "write_timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestRegisterAppFlags_Conflict(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := registerCoreFlags(fs); err != nil {
		t.Fatal(err)
	}
	if err := registerAppFlags(fs, []AppKey{{Name: "http_port", Default: 1}}); err == nil {
		t.Error("expected conflict error")
	}
	if err := registerAppFlags(fs, []AppKey{{Name: "weird", Default: struct{}{}}}); err == nil {
		t.Error("expected unsupported type error")
	}
}

func TestAppConfigValues_Accessors(t *testing.T) {
	a := AppConfigValues{
		"s":     "x",
		"n":     "42",
		"f":     "0.5",
		"b":     "true",
		"list":  "a@x.com, b@x.com",
		"json":  `["one","two"]`,
		"dur":   "90s",
		"bad":   "later",
		"int64": int64(7),
	}
	if a.String("s") != "x" || a.Int("n") != 42 || a.Float64("f") != 0.5 || !a.Bool("b") {
		t.Errorf("scalar accessors wrong: %v", a)
	}
	if got := a.StringSlice("list"); len(got) != 2 || got[1] != "b@x.com" {
		t.Errorf("comma list = %v", got)
	}
	if got := a.StringSlice("json"); len(got) != 2 || got[0] != "one" {
		t.Errorf("json list = %v", got)
	}
	if a.Duration("dur", time.Second) != 90*time.Second || a.Duration("bad", time.Second) != time.Second {
		t.Error("duration accessor wrong")
	}
	if a.Int("int64") != 7 || a.String("missing") != "" {
		t.Error("fallbacks wrong")
	}
}
