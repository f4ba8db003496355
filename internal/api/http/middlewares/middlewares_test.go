package middlewares

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(PrometheusMetrics(reg))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/items/1", "/items/2", "/metrics", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	n, err := testutil.GatherAndCount(reg, "acacalc_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "серии: шаблон маршрута и unknown; /metrics не учитывается")

	expected := `
# HELP acacalc_http_requests_in_flight Number of HTTP requests currently being processed
# TYPE acacalc_http_requests_in_flight gauge
acacalc_http_requests_in_flight 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "acacalc_http_requests_in_flight"))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) {
		c.Header(SessionHeader, "sess-1")
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))

	out := buf.String()
	assert.Contains(t, out, "path=\"/ping?x=1\"")
	assert.Contains(t, out, "status=204")
	assert.Contains(t, out, "session=sess-1")
}
