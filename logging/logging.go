// Package logging builds the process zap loggers and the HTTP logging
// middleware.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BootstrapLogger is the console logger used until config is loaded.
func BootstrapLogger() *zap.Logger {
	l, err := newConfig("dev", zapcore.InfoLevel).Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// ParseLevel accepts any zap level name, case-insensitively.
func ParseLevel(level string) (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}

// BuildLogger returns the service logger: JSON with sampling when env is
// "prod", the console encoder otherwise. An invalid level falls back to
// info and is reported through the new logger.
func BuildLogger(level, env string) (*zap.Logger, error) {
	lvl, levelErr := ParseLevel(level)

	l, err := newConfig(env, lvl).Build()
	if err != nil {
		return nil, err
	}
	if levelErr != nil {
		l.Warn("falling back to info", zap.Error(levelErr))
	}
	return l, nil
}

func newConfig(env string, lvl zapcore.Level) zap.Config {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}
