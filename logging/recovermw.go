package logging

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const internalErrorJSON = `{"error":"internal","message":"internal server error"}` + "\n"

// Recoverer turns a handler panic into a logged error and a 500. The
// body is JSON under /api/ and plain text elsewhere. Nothing is written
// when the handler already started its response. http.ErrAbortHandler
// is re-panicked so net/http can abort the connection.
func Recoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, max(r.ProtoMajor, 1))
			defer func() {
				v := recover()
				switch {
				case v == nil:
					return
				case v == http.ErrAbortHandler:
					panic(v)
				}

				logger.Error("handler panic",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Int("status_sent", ww.Status()),
					zap.ByteString("stack", debug.Stack()),
				)
				if ww.Status() != 0 {
					return
				}
				writeInternalError(w, r)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(internalErrorJSON))
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
