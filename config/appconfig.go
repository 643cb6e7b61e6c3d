package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares a site-specific setting. It is read from the same
// sources, with the same precedence, as the core keys.
type AppKey struct {
	// Name is used verbatim in config files and as the flag name. The env
	// var is the upper-cased name behind the prefix.
	Name string

	// Default also fixes the flag type: string, int, int64, bool,
	// float64 or []string.
	Default any

	Desc string

	// Secret values are redacted when the loaded config is logged.
	Secret bool
}

// AppConfigValues maps AppKey.Name to its resolved value. Values from the
// environment arrive as strings; the accessors convert them.
type AppConfigValues map[string]any

func (a AppConfigValues) String(key string) string {
	if v, ok := a[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Int returns 0 for missing or unparsable values.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

// Float64 returns 0 for missing or unparsable values.
func (a AppConfigValues) Float64(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}

// Bool accepts the strconv.ParseBool spellings plus yes and on.
func (a AppConfigValues) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "yes" || s == "on" {
			return true
		}
		b, _ := strconv.ParseBool(s)
		return b
	}
	return false
}

// StringSlice accepts a list, a JSON array string or a comma separated
// string.
func (a AppConfigValues) StringSlice(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = fmt.Sprint(e)
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			var arr []string
			if json.Unmarshal([]byte(s), &arr) == nil {
				return arr
			}
		}
		if out := splitList(s); len(out) > 0 {
			return out
		}
	}
	return nil
}

// Duration takes "10m", "90s" or plain seconds. Missing or invalid
// values yield def.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	d, err := parseDurationFlexible(a[key], def)
	if err != nil {
		return def
	}
	return d
}

// loadAppConfig resolves app keys with the core precedence. core holds
// the already merged config files.
func loadAppConfig(logger *zap.Logger, core *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	v := newViper(envPrefix)
	values := make(AppConfigValues, len(keys))
	fields := make([]zap.Field, 0, len(keys))

	for _, key := range keys {
		v.SetDefault(key.Name, key.Default)
		_ = v.BindEnv(key.Name)
		if core.InConfig(key.Name) {
			v.Set(key.Name, core.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = v.BindPFlag(key.Name, f)
		}

		values[key.Name] = v.Get(key.Name)
		if key.Secret || looksSecret(key.Name) {
			fields = append(fields, zap.String(key.Name, "[REDACTED]"))
		} else {
			fields = append(fields, zap.Any(key.Name, values[key.Name]))
		}
	}

	if len(keys) > 0 {
		logger.Info("app config loaded", fields...)
	}
	return values
}

func looksSecret(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "secret") || strings.Contains(n, "password") || strings.Contains(n, "token")
}

// registerAppFlags must run before fs is parsed.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if err := registerFlag(fs, key.Name, key.Default, key.Desc); err != nil {
			return err
		}
	}
	return nil
}
