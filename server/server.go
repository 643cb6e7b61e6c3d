// Package server runs the HTTP(S) listener with graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dalemusser/landing/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel function also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Info("shutdown signal received", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

const defaultShutdownTimeout = 15 * time.Second

// ListenAndServeWithContext serves handler over plain HTTP, HTTPS with
// certificate files, or HTTPS with Let's Encrypt (http-01), depending on
// cfg. HTTPS modes also run a :80 server for redirects and challenges.
// It blocks until ctx is canceled or a server fails.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	errLog := stdErrorLog(logger)
	srv := newServer(cfg, "", handler, errLog)

	var (
		mode   = "http"
		aux    *http.Server
		tlsCfg *tls.Config
		warm   func(context.Context)
	)
	switch {
	case !cfg.HTTP.UseHTTPS:
	case cfg.TLS.UseLetsEncrypt:
		mode = "https-letsencrypt"
		m := certManager(cfg)
		aux = newServer(cfg, ":80", m.HTTPHandler(httpRedirectHandler()), errLog)
		tlsCfg = m.TLSConfig()
		tlsCfg.MinVersion = tls.VersionTLS12
		warm = func(ctx context.Context) {
			if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
				logger.Warn("certificate not ready; first HTTPS requests may fail", zap.Error(err))
			}
		}
	default:
		mode = "https-manual"
		var err error
		if tlsCfg, err = fileTLSConfig(cfg, logger); err != nil {
			return err
		}
		aux = newServer(cfg, ":80", httpRedirectHandler(), errLog)
	}

	g, gctx := errgroup.WithContext(ctx)
	servers := []*http.Server{srv}

	// The :80 server goes first so ACME challenges can be answered while
	// the certificate is fetched.
	if aux != nil {
		auxLn, err := net.Listen("tcp", aux.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", aux.Addr, err)
		}
		servers = append(servers, aux)
		g.Go(func() error { return serve(aux, auxLn, "auxiliary") })
		logger.Info("auxiliary server listening", zap.String("addr", aux.Addr))
	}
	if warm != nil {
		warm(gctx)
	}

	ln, err := listen(cfg, tlsCfg)
	if err != nil {
		if aux != nil {
			_ = aux.Close()
		}
		_ = g.Wait()
		return err
	}
	logger.Info("server listening", zap.String("mode", mode), zap.String("addr", ln.Addr().String()))
	g.Go(func() error { return serve(srv, ln, "primary") })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var errs []error
		for _, s := range servers {
			errs = append(errs, s.Shutdown(sctx))
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// serve treats http.ErrServerClosed as a clean exit.
func serve(s *http.Server, ln net.Listener, name string) error {
	if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

func newServer(cfg *config.CoreConfig, addr string, handler http.Handler, errLog *log.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          errLog,
	}
}

// stdErrorLog routes net/http's internal errors into zap at warn level.
func stdErrorLog(logger *zap.Logger) *log.Logger {
	l, err := zap.NewStdLogAt(logger, zapcore.WarnLevel)
	if err != nil {
		logger.Warn("stdlib error logger unavailable", zap.Error(err))
		return nil
	}
	return l
}

// listen binds the HTTP port, or the HTTPS port when tlsCfg is set.
func listen(cfg *config.CoreConfig, tlsCfg *tls.Config) (net.Listener, error) {
	port := cfg.HTTP.HTTPPort
	if tlsCfg != nil {
		port = cfg.HTTP.HTTPSPort
	}
	addr := ":" + strconv.Itoa(port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}
	return ln, nil
}
