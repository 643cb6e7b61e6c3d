// Package metrics holds the Prometheus collectors for HTTP traffic and
// contact form inquiries.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	reqDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
	}, []string{"path", "method", "status"})

	inquiries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_inquiries_total",
		Help: "Contact form submissions by outcome.",
	}, []string{"outcome"})

	deliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landing_delivery_duration_seconds",
		Help:    "Time spent handing an inquiry to the delivery channel.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"mode", "result"})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landing_rate_limited_total",
		Help: "Contact submissions rejected by the rate limiter.",
	})
)

// RegisterDefault adds the runtime collectors and the landing metrics to
// the default registry. Repeated calls are no-ops. Any other registration
// failure is a programming error and panics.
func RegisterDefault(logger *zap.Logger) {
	all := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		reqDuration, inquiries, deliveryDuration, rateLimited,
	}
	for _, c := range all {
		err := prometheus.Register(c)
		var dup prometheus.AlreadyRegisteredError
		if err == nil || errors.As(err, &dup) {
			continue
		}
		if logger != nil {
			logger.Error("metrics registration failed", zap.Error(err))
		}
		panic(err)
	}
}

// InquiryOutcome counts one submission: acknowledged, invalid,
// delivery_failed or malformed.
func InquiryOutcome(outcome string) {
	inquiries.WithLabelValues(outcome).Inc()
}

// ObserveDelivery records one delivery attempt.
func ObserveDelivery(mode string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	deliveryDuration.WithLabelValues(mode, result).Observe(elapsed.Seconds())
}

// RateLimited counts one rejected submission.
func RateLimited() { rateLimited.Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// HTTPMetrics observes request duration by route pattern, method and
// status. It must run inside a chi router.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, max(r.ProtoMajor, 1))
		next.ServeHTTP(ww, r)

		reqDuration.WithLabelValues(
			routeLabel(r),
			r.Method,
			strconv.Itoa(statusLabel(ww.Status())),
		).Observe(time.Since(start).Seconds())
	})
}

// statusLabel maps "never written" to 200 and out-of-range codes to 500.
func statusLabel(code int) int {
	switch {
	case code == 0:
		return http.StatusOK
	case code < 100 || code > 599:
		return http.StatusInternalServerError
	}
	return code
}

// routeLabel never uses the raw path, so probing random URLs cannot grow
// the label set.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
