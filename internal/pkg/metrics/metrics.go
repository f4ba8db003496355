// Package metrics — счётчики Prometheus для расчётов и объяснений.
// Методы безопасны на nil *Metrics: юзкейсы в тестах создаются без метрик.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// Metrics — метрики оркестраторов.
type Metrics struct {
	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec
	completed    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	fallbacks    prometheus.Counter
	superseded   prometheus.Counter
	duration     *prometheus.HistogramVec
	explanations *prometheus.CounterVec
}

// New регистрирует метрики в reg (nil — prometheus.DefaultRegisterer).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acacalc_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"status"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acacalc_cache_writes_total",
			Help: "Result cache writes by outcome",
		}, []string{"status"}),
		completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acacalc_calculations_completed_total",
			Help: "Successful calculations by result source",
		}, []string{"source"}),
		failed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acacalc_calculations_failed_total",
			Help: "Failed calculations by the phase that failed",
		}, []string{"phase"}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "acacalc_fallback_requests_total",
			Help: "Blocking requests issued after a streaming failure",
		}),
		superseded: f.NewCounter(prometheus.CounterOpts{
			Name: "acacalc_calculations_superseded_total",
			Help: "Attempts discarded because a newer request started",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acacalc_calculation_duration_seconds",
			Help:    "Time from request to result by result source",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"source"}),
		explanations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acacalc_explanations_total",
			Help: "Explanation requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) CacheLookup(s domain.CacheStatus) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) CacheWrite(s domain.CacheWriteStatus) {
	if m == nil {
		return
	}
	m.cacheWrites.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) Completed(src domain.Source, d time.Duration) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(string(src)).Inc()
	m.duration.WithLabelValues(string(src)).Observe(d.Seconds())
}

func (m *Metrics) Failed(phase domain.Phase) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

// Explanation — исход запроса объяснения: ok, failed, superseded.
func (m *Metrics) Explanation(outcome string) {
	if m == nil {
		return
	}
	m.explanations.WithLabelValues(outcome).Inc()
}
