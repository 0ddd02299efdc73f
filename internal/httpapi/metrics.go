package httpapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP and interview counters exported at /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	requestDur    *prometheus.HistogramVec
	interviews    prometheus.Counter
	chatTurns     prometheus.Counter
	penalties     prometheus.Counter
}

// NewMetrics creates a self-contained metric set with its own registry, so
// tests never collide on duplicate registration.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interviewd_http_requests_total",
			Help: "Total HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),
		requestDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interviewd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and path.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "path"}),
		interviews: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewd_interviews_started_total",
			Help: "Interviews started.",
		}),
		chatTurns: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewd_chat_turns_total",
			Help: "Chat turns processed.",
		}),
		penalties: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewd_penalties_total",
			Help: "Penalty ledger entries appended through the HTTP surface.",
		}),
	}
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			m.requestsTotal.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDur.WithLabelValues(c.Request().Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
