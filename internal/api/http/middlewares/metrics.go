package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics возвращает мидлварь HTTP-метрик, зарегистрированных в reg.
// Потоковые ответы (SSE) учитываются целиком, от запроса до закрытия потока.
func PrometheusMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	f := promauto.With(reg)
	requestsTotal := f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acacalc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "acacalc_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	inFlight := f.NewGauge(
		prometheus.GaugeOpts{
			Name: "acacalc_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		inFlight.Inc()
		defer inFlight.Dec()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
