// Package config loads service configuration from defaults, config files,
// environment variables and command-line flags.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// HTTPConfig holds the listener and its timeouts.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	// Filled after decoding; "30s" and plain seconds are both accepted.
	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// TLSConfig selects between certificate files and Let's Encrypt.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`

	// Empty means the Let's Encrypt production directory.
	ACMEDirectoryURL string `mapstructure:"acme_directory_url"`
}

// CORSConfig applies to the JSON API only.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSExposedHeaders   []string `mapstructure:"cors_exposed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// SecurityConfig is the set of security response headers.
type SecurityConfig struct {
	EnableSecurityHeaders bool   `mapstructure:"enable_security_headers"`
	XFrameOptions         string `mapstructure:"x_frame_options"`
	XContentTypeOptions   string `mapstructure:"x_content_type_options"`
	ReferrerPolicy        string `mapstructure:"referrer_policy"`
	XSSProtection         string `mapstructure:"x_xss_protection"`
	HSTSMaxAge            int    `mapstructure:"hsts_max_age"`
	HSTSIncludeSubDomains bool   `mapstructure:"hsts_include_subdomains"`
	HSTSPreload           bool   `mapstructure:"hsts_preload"`
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`
	PermissionsPolicy     string `mapstructure:"permissions_policy"`
}

// CoreConfig is what the process needs regardless of the site it serves.
type CoreConfig struct {
	Env      string `mapstructure:"env"` // dev or prod
	LogLevel string `mapstructure:"log_level"`

	HTTP     HTTPConfig     `mapstructure:",squash"`
	TLS      TLSConfig      `mapstructure:",squash"`
	CORS     CORSConfig     `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`

	EnableCompression bool `mapstructure:"enable_compression"`
	CompressionLevel  int  `mapstructure:"compression_level"`
}

// Dump renders the config as indented JSON for debug logs. Core keys
// carry no secrets.
func (c CoreConfig) Dump() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// setting is one core key: its default doubles as the flag type.
type setting struct {
	name     string
	def      any
	usage    string
	duration bool
}

// defaultCSP allows same-origin assets only. The page has no inline
// script or style.
const defaultCSP = "default-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'self'; base-uri 'self'"

var coreSettings = []setting{
	{name: "env", def: "dev", usage: `Runtime environment "dev"|"prod"`},
	{name: "log_level", def: "debug", usage: "Log level"},

	{name: "http_port", def: 8080, usage: "HTTP port"},
	{name: "https_port", def: 443, usage: "HTTPS port"},
	{name: "use_https", def: false, usage: "Serve HTTPS"},
	{name: "read_timeout", def: "15s", usage: "HTTP read timeout", duration: true},
	{name: "read_header_timeout", def: "10s", usage: "HTTP read header timeout", duration: true},
	{name: "write_timeout", def: "30s", usage: "HTTP write timeout", duration: true},
	{name: "idle_timeout", def: "60s", usage: "HTTP keep-alive idle timeout", duration: true},
	{name: "shutdown_timeout", def: "15s", usage: "Graceful shutdown timeout", duration: true},

	{name: "use_lets_encrypt", def: false, usage: "Obtain certificates from Let's Encrypt"},
	{name: "lets_encrypt_email", def: "", usage: "ACME account e-mail"},
	{name: "lets_encrypt_cache_dir", def: "letsencrypt-cache", usage: "ACME certificate cache dir"},
	{name: "cert_file", def: "", usage: "TLS certificate file"},
	{name: "key_file", def: "", usage: "TLS key file"},
	{name: "domain", def: "", usage: "Public domain name"},
	{name: "acme_directory_url", def: "", usage: "ACME directory URL (empty = Let's Encrypt production)"},

	{name: "enable_compression", def: true, usage: "Compress responses"},
	{name: "compression_level", def: 5, usage: "Compression level 1-9"},

	{name: "enable_cors", def: false, usage: "Send CORS headers on /api"},
	{name: "cors_allowed_origins", def: []string{}, usage: `Allowed origins, e.g. '["https://a.example"]'`},
	{name: "cors_allowed_methods", def: []string{}, usage: `Allowed methods, e.g. '["POST"]'`},
	{name: "cors_allowed_headers", def: []string{}, usage: `Allowed headers, e.g. '["Content-Type"]'`},
	{name: "cors_exposed_headers", def: []string{}, usage: `Exposed headers, e.g. '["Retry-After"]'`},
	{name: "cors_allow_credentials", def: false, usage: "Allow credentialed CORS requests"},
	{name: "cors_max_age", def: 0, usage: "Preflight cache seconds (0 disables)"},

	{name: "enable_security_headers", def: true, usage: "Send security response headers"},
	{name: "x_frame_options", def: "SAMEORIGIN", usage: "X-Frame-Options value"},
	{name: "x_content_type_options", def: "nosniff", usage: "X-Content-Type-Options value"},
	{name: "referrer_policy", def: "strict-origin-when-cross-origin", usage: "Referrer-Policy value"},
	{name: "x_xss_protection", def: "1; mode=block", usage: "X-XSS-Protection value"},
	{name: "hsts_max_age", def: 31536000, usage: "HSTS max-age seconds (0 disables)"},
	{name: "hsts_include_subdomains", def: true, usage: "HSTS includeSubDomains"},
	{name: "hsts_preload", def: false, usage: "HSTS preload"},
	{name: "content_security_policy", def: defaultCSP, usage: "Content-Security-Policy value"},
	{name: "permissions_policy", def: "geolocation=(), microphone=(), camera=()", usage: "Permissions-Policy value"},

	{name: "max_request_body_bytes", def: int64(64 << 10), usage: "Request body limit in bytes (0 = unlimited)"},
}

// Load reads core and app configuration from os.Args. Later sources win:
// defaults, config file, environment, explicitly set flags.
//
// Every key is read from the environment behind envPrefix, so http_port
// becomes LANDING_HTTP_PORT.
func Load(logger *zap.Logger, envPrefix string, keys []AppKey) (*CoreConfig, AppConfigValues, error) {
	return LoadFlags(logger, pflag.CommandLine, os.Args[1:], envPrefix, keys)
}

// LoadFlags is Load with an explicit flag set and argument list.
func LoadFlags(logger *zap.Logger, fs *pflag.FlagSet, args []string, envPrefix string, keys []AppKey) (*CoreConfig, AppConfigValues, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// A .env file fills in variables that are not already set.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	if err := registerCoreFlags(fs); err != nil {
		return nil, nil, err
	}
	if err := registerAppFlags(fs, keys); err != nil {
		return nil, nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	v := newViper(envPrefix)
	mergeConfigFiles(logger, v)
	for _, s := range coreSettings {
		_ = v.BindEnv(s.name)
		v.SetDefault(s.name, s.def)
		if f := fs.Lookup(s.name); f != nil && f.Changed {
			_ = v.BindPFlag(s.name, f)
		}
		if _, ok := s.def.([]string); ok {
			if err := coerceList(v, s.name); err != nil {
				return nil, nil, err
			}
		}
	}

	var cfg CoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode core config: %w", err)
	}

	p := &problems{envPrefix: envPrefix}
	targets := durationTargets(&cfg)
	for _, s := range coreSettings {
		if !s.duration {
			continue
		}
		def, _ := time.ParseDuration(s.def.(string))
		d, err := parseDurationFlexible(v.Get(s.name), def)
		if err != nil {
			p.invalid(fmt.Sprintf("%s: %v", s.name, err))
		}
		*targets[s.name] = d
	}
	checkCore(cfg, p)
	if err := p.err("core configuration errors"); err != nil {
		return nil, nil, err
	}

	return &cfg, loadAppConfig(logger, v, fs, envPrefix, keys), nil
}

func durationTargets(cfg *CoreConfig) map[string]*time.Duration {
	return map[string]*time.Duration{
		"read_timeout":        &cfg.HTTP.ReadTimeout,
		"read_header_timeout": &cfg.HTTP.ReadHeaderTimeout,
		"write_timeout":       &cfg.HTTP.WriteTimeout,
		"idle_timeout":        &cfg.HTTP.IdleTimeout,
		"shutdown_timeout":    &cfg.HTTP.ShutdownTimeout,
	}
}

func newViper(envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func registerCoreFlags(fs *pflag.FlagSet) error {
	for _, s := range coreSettings {
		if err := registerFlag(fs, s.name, s.def, s.usage); err != nil {
			return err
		}
	}
	return nil
}

// registerFlag picks the flag type from def. Lists are taken as a JSON
// array or comma separated string.
func registerFlag(fs *pflag.FlagSet, name string, def any, usage string) error {
	if fs.Lookup(name) != nil {
		return fmt.Errorf("config key %q conflicts with existing flag", name)
	}
	switch d := def.(type) {
	case string:
		fs.String(name, d, usage)
	case int:
		fs.Int(name, d, usage)
	case int64:
		fs.Int64(name, d, usage)
	case float64:
		fs.Float64(name, d, usage)
	case bool:
		fs.Bool(name, d, usage)
	case []string:
		fs.String(name, "", usage+" (JSON array or comma separated)")
	default:
		return fmt.Errorf("config key %q has unsupported default type %T", name, def)
	}
	return nil
}

// mergeConfigFiles merges every config.{yaml,yml,json,toml} present in
// the working directory. Unreadable files are logged and skipped.
func mergeConfigFiles(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if os.IsNotExist(err) {
			continue
		}
		if err == nil {
			v.SetConfigType(ext)
			err = v.MergeConfig(bytes.NewReader(b))
		}
		if err != nil {
			logger.Warn("skipping config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("loaded config file", zap.String("file", file))
	}
}

// coerceList stores key as a []string whether it arrived as a YAML list,
// a JSON array string or a comma separated string.
func coerceList(v *viper.Viper, key string) error {
	switch t := v.Get(key).(type) {
	case []string, nil:
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = fmt.Sprint(e)
		}
		v.Set(key, out)
	case string:
		s := strings.TrimSpace(t)
		if !strings.HasPrefix(s, "[") {
			v.Set(key, splitList(s))
			return nil
		}
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return fmt.Errorf("config key %q: bad JSON array %q: %w", key, s, err)
		}
		v.Set(key, out)
	default:
		return fmt.Errorf("config key %q: expected a list, got %T", key, t)
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems collects configuration errors so they are reported together.
type problems struct {
	envPrefix string
	missing   []string
	bad       []string
}

func (p *problems) need(key, why string) {
	p.missing = append(p.missing, fmt.Sprintf("%s_%s (--%s) %s", p.envPrefix, strings.ToUpper(key), key, why))
}

func (p *problems) invalid(msg string) { p.bad = append(p.bad, msg) }

func (p *problems) err(prefix string) error {
	if len(p.missing) == 0 && len(p.bad) == 0 {
		return nil
	}
	var parts []string
	if len(p.missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(p.missing, ", "))
	}
	if len(p.bad) > 0 {
		parts = append(parts, "invalid: "+strings.Join(p.bad, ", "))
	}
	return fmt.Errorf("%s: %s", prefix, strings.Join(parts, " | "))
}

func validPort(n int) bool { return n > 0 && n <= 65535 }

func checkCore(cfg CoreConfig, p *problems) {
	if cfg.Env != "dev" && cfg.Env != "prod" {
		p.invalid(`env must be "dev" or "prod"`)
	}
	if !validPort(cfg.HTTP.HTTPPort) {
		p.invalid("http_port must be in 1..65535")
	}
	if !validPort(cfg.HTTP.HTTPSPort) {
		p.invalid("https_port must be in 1..65535")
	}

	tls := cfg.TLS
	hasFiles := strings.TrimSpace(tls.CertFile) != "" || strings.TrimSpace(tls.KeyFile) != ""
	switch {
	case tls.UseLetsEncrypt:
		if !cfg.HTTP.UseHTTPS {
			p.invalid("use_lets_encrypt requires use_https")
		}
		if hasFiles {
			p.invalid("use_lets_encrypt cannot be combined with cert_file/key_file")
		}
		if strings.TrimSpace(tls.Domain) == "" {
			p.need("domain", "for Let's Encrypt")
		}
		switch email := strings.TrimSpace(tls.LetsEncryptEmail); {
		case email == "":
			p.need("lets_encrypt_email", "for Let's Encrypt")
		case !strings.Contains(email, "@"):
			p.invalid("lets_encrypt_email must look like an email address")
		}
	case cfg.HTTP.UseHTTPS:
		if strings.TrimSpace(tls.CertFile) == "" {
			p.need("cert_file", "for manual TLS")
		}
		if strings.TrimSpace(tls.KeyFile) == "" {
			p.need("key_file", "for manual TLS")
		}
	}
	if cfg.HTTP.UseHTTPS {
		if cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
			p.invalid("http_port and https_port must differ when use_https is set")
		}
		if cfg.HTTP.HTTPSPort == 80 {
			p.invalid("https_port cannot be 80; port 80 serves ACME challenges and redirects")
		}
	}

	if cfg.EnableCompression && (cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9) {
		p.invalid("compression_level must be in 1..9")
	}
	if cfg.MaxRequestBodyBytes < 0 {
		p.invalid("max_request_body_bytes must be >= 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		p.invalid("hsts_max_age must be >= 0")
	}

	if c := cfg.CORS; c.EnableCORS {
		if len(c.CORSAllowedOrigins) == 0 {
			p.need("cors_allowed_origins", "when enable_cors is set")
		}
		if len(c.CORSAllowedMethods) == 0 {
			p.need("cors_allowed_methods", "when enable_cors is set")
		}
		if c.CORSAllowCredentials {
			for _, o := range c.CORSAllowedOrigins {
				if o == "*" {
					p.invalid(`cors_allowed_origins cannot contain "*" with cors_allow_credentials`)
					break
				}
			}
		}
		if c.CORSMaxAge < 0 {
			p.invalid("cors_max_age must be >= 0")
		}
	}
}
