package middleware

import (
	"net/http"

	"github.com/dalemusser/landing/config"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing on this
// site; images and fonts are already compressed.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig returns gzip/deflate compression at the configured
// level, or a no-op when compression is disabled.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return passthrough
	}
	return Compress(coreCfg.CompressionLevel)
}

// Compress compresses compressibleTypes at level, clamped to 1..9.
func Compress(level int) func(next http.Handler) http.Handler {
	switch {
	case level < 1:
		level = 1
	case level > 9:
		level = 9
	}
	return chimw.Compress(level, compressibleTypes...)
}
