// Package app runs a service through the standard startup sequence:
// config, logging, metrics, backends, handler, server, shutdown.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/landing/config"
	"github.com/dalemusser/landing/httputil"
	"github.com/dalemusser/landing/logging"
	"github.com/dalemusser/landing/metrics"
	"github.com/dalemusser/landing/server"
	"github.com/dalemusser/landing/version"
	"go.uber.org/zap"
)

// Hooks are the integration points a service provides. C is its config
// type and D the bundle of backends it connects at startup.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the service config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect opens the backends the handler needs. ctx carries the
	// shutdown signal.
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// BuildHandler returns the root http.Handler.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Close releases what Connect opened. It runs after the server has
	// stopped and may be nil.
	Close func(deps D, logger *zap.Logger) error
}

// ErrStartup wraps failures before the server starts listening.
var ErrStartup = errors.New("startup failed")

// Run executes:
//
//  1. bootstrap logger
//  2. Hooks.LoadConfig
//  3. final logger from log_level / env
//  4. default metrics
//  5. shutdown signals → ctx
//  6. Hooks.Connect
//  7. Hooks.BuildHandler
//  8. HTTP(S) server until ctx is done
//  9. Hooks.Close
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	boot := logging.BootstrapLogger()
	defer boot.Sync()

	coreCfg, appCfg, err := hooks.LoadConfig(boot)
	if err != nil {
		boot.Error("config load failed", zap.Error(err))
		return errors.Join(ErrStartup, err)
	}

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		boot.Error("logger build failed", zap.Error(err))
		return errors.Join(ErrStartup, err)
	}
	defer logger.Sync()
	logger.Info("starting",
		zap.String("app", hooks.Name),
		zap.String("version", version.Get().String()),
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))

	httputil.SetLogger(logger)
	metrics.RegisterDefault(logger)

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	deps, err := hooks.Connect(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("connect failed", zap.Error(err))
		return errors.Join(ErrStartup, err)
	}
	defer func() {
		if hooks.Close == nil {
			return
		}
		if err := hooks.Close(deps, logger); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return errors.Join(ErrStartup, err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
