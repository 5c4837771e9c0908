package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ctxKey string

const routeLabelKey ctxKey = "metrics_route"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_service_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_service_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	dbLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_service_db_latency_seconds",
		Help:    "Histogram of database operation latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "route"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_service_provider_request_duration_seconds",
		Help:    "Histogram of outbound provider call latencies.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"provider", "operation", "outcome"})

	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_service_sync_runs_total",
		Help: "Sync passes by kind and final status.",
	}, []string{"kind", "status"})

	tokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_service_token_refresh_total",
		Help: "Token refresh attempts by provider and outcome.",
	}, []string{"provider", "outcome"})
)

// Middleware records request metrics and stores the route pattern for downstream instrumentation.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := context.WithValue(r.Context(), routeLabelKey, r.URL.Path)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// the pattern is only known after routing
			route := routePattern(r)
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveDBLatency(ctx context.Context, operation string, start time.Time) {
	dbLatency.WithLabelValues(operation, routeFromContext(ctx)).Observe(time.Since(start).Seconds())
}

func ObserveProviderCall(provider, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerLatency.WithLabelValues(provider, operation, outcome).Observe(time.Since(start).Seconds())
}

func RecordSync(kind, status string) {
	syncRunsTotal.WithLabelValues(kind, status).Inc()
}

func RecordTokenRefresh(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	tokenRefreshTotal.WithLabelValues(provider, outcome).Inc()
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeLabelKey).(string); ok && route != "" {
		return route
	}
	return "background"
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
