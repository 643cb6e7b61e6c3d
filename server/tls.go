package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/dalemusser/landing/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// errKeyPermissions marks a key file readable by group or others.
var errKeyPermissions = errors.New("overly permissive permissions")

// fileTLSConfig loads cert_file and key_file. A key readable by others
// is fatal in prod and a warning elsewhere.
func fileTLSConfig(cfg *config.CoreConfig, logger *zap.Logger) (*tls.Config, error) {
	certFile, keyFile := cfg.TLS.CertFile, cfg.TLS.KeyFile
	if certFile == "" || keyFile == "" {
		return nil, errors.New("https without Let's Encrypt needs cert_file and key_file")
	}

	err := validateTLSFiles(certFile, keyFile)
	switch {
	case err == nil:
	case !errors.Is(err, errKeyPermissions):
		return nil, err
	case cfg.Env == "prod":
		return nil, err
	default:
		logger.Warn("TLS key file is readable by others", zap.Error(err))
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}, nil
}

func certManager(cfg *config.CoreConfig) *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
		Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
		Email:      cfg.TLS.LetsEncryptEmail,
	}
	if cfg.TLS.ACMEDirectoryURL != "" {
		m.Client = &acme.Client{DirectoryURL: cfg.TLS.ACMEDirectoryURL}
	}
	return m
}

// validateTLSFiles requires both paths to be regular files and, outside
// Windows, the key to be private to its owner.
func validateTLSFiles(certFile, keyFile string) error {
	if _, err := regularFile("certificate", certFile); err != nil {
		return err
	}
	key, err := regularFile("key", keyFile)
	if err != nil {
		return err
	}
	if perm := key.Mode().Perm(); runtime.GOOS != "windows" && perm&0o077 != 0 {
		return fmt.Errorf("TLS key %s has %w %o, want 0600", keyFile, errKeyPermissions, perm)
	}
	return nil
}

func regularFile(kind, path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("TLS %s file does not exist: %s", kind, path)
	case err != nil:
		return nil, fmt.Errorf("TLS %s file %s: %w", kind, path, err)
	case info.IsDir():
		return nil, fmt.Errorf("TLS %s path %s is a directory", kind, path)
	}
	return info, nil
}

// waitForCert asks autocert for host's certificate once a second until
// it succeeds or timeout passes.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hello := &tls.ClientHelloInfo{ServerName: host}
	for {
		_, err := m.GetCertificate(hello)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("certificate for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-time.After(time.Second):
		}
	}
}
