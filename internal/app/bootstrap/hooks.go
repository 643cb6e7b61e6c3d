// Package bootstrap wires the landing service into the app runner.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/landing/app"
	"github.com/dalemusser/landing/config"
	"github.com/dalemusser/landing/delivery"
	"github.com/dalemusser/landing/health"
	"github.com/dalemusser/landing/internal/app/features/site"
	"github.com/dalemusser/landing/metrics"
	"github.com/dalemusser/landing/middleware"
	"github.com/dalemusser/landing/ratelimit"
	"github.com/dalemusser/landing/router"
	"github.com/dalemusser/landing/version"
	"go.uber.org/zap"
)

// LoadConfig reads core and app settings.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, values, err := config.Load(logger, EnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := newAppConfig(values)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

// Connect loads the page content and opens the delivery backend and the
// rate limit store.
func Connect(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (*Deps, error) {
	deps := &Deps{Checks: map[string]health.Check{}}

	content, err := site.LoadContent(appCfg.ContentFile)
	if err != nil {
		return nil, err
	}
	deps.Content = content

	backend, err := delivery.New(ctx, appCfg.Delivery, logger)
	if err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	deps.Delivery = backend
	deps.onClose(backend.Close)
	if backend.Check != nil {
		deps.Checks["delivery"] = backend.Check
	}

	switch {
	case appCfg.ContactRate == 0:
		logger.Warn("contact rate limiting disabled (contact_rate=0)")
	case appCfg.RedisURL != "":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := ratelimit.Connect(connectCtx, appCfg.RedisURL)
		if err != nil {
			deps.close()
			return nil, err
		}
		rl := ratelimit.NewRedis(client, "", appCfg.ContactRate, appCfg.ContactWindow)
		deps.Limiter = rl
		deps.Checks["redis"] = rl.Check
		deps.onClose(rl.Close)
		logger.Info("contact rate limit in redis",
			zap.Int("rate", appCfg.ContactRate),
			zap.Duration("window", appCfg.ContactWindow))
	default:
		kl := ratelimit.NewKeyLimiter(appCfg.ContactRate, appCfg.ContactWindow, appCfg.ContactBurst, time.Hour)
		deps.Limiter = kl
		deps.onClose(kl.Close)
		logger.Info("contact rate limit in memory",
			zap.Int("rate", appCfg.ContactRate),
			zap.Duration("window", appCfg.ContactWindow),
			zap.Int("burst", appCfg.ContactBurst))
	}

	return deps, nil
}

// BuildHandler assembles the router, probes and site routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps *Deps, logger *zap.Logger) (http.Handler, error) {
	sender := delivery.Observe(deps.Delivery.Sender, deps.Delivery.Mode, metrics.ObserveDelivery)

	s, err := site.New(site.Config{
		Content:      deps.Content,
		Sender:       sender,
		Practitioner: appCfg.Practitioner,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	r := router.New(coreCfg, logger, s.NotFound())

	health.Mount(r, deps.Checks, 0, logger)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Method(http.MethodGet, "/version", version.Handler())

	mw := site.Middleware{
		CORS:        middleware.CORSFromConfig(coreCfg),
		RequireJSON: middleware.RequireJSON(),
	}
	if deps.Limiter != nil {
		mw.RateLimit = ratelimit.Middleware(ratelimit.Config{
			Store:     deps.Limiter,
			Logger:    logger,
			OnLimited: s.RateLimited(),
		})
	}
	s.Mount(r, mw)

	return r, nil
}

// Close releases the backends.
func Close(deps *Deps, logger *zap.Logger) error {
	return deps.close()
}

// Hooks wires the landing service into the runner.
var Hooks = app.Hooks[AppConfig, *Deps]{
	Name:         "landing",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	BuildHandler: BuildHandler,
	Close:        Close,
}
