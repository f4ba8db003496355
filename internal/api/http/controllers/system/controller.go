package system

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger — зависимость, доступность которой проверяет readiness (история, Redis, ClickHouse).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc — адаптер функции к Pinger.
type PingFunc func(ctx context.Context) error

// Ping реализует Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Controller — системные маршруты: liveness, readiness, метрики.
type Controller struct {
	deps     map[string]Pinger
	gatherer prometheus.Gatherer
	log      *slog.Logger
}

// New создаёт системный контроллер. deps — именованные зависимости для readiness, может быть пустым.
func New(deps map[string]Pinger, gatherer prometheus.Gatherer, log *slog.Logger) *Controller {
	return &Controller{deps: deps, gatherer: gatherer, log: log}
}

// RegisterRoutes реализует http.Controller: регистрирует маршруты на роутере.
func (c *Controller) RegisterRoutes(r *gin.Engine) {
	r.GET("/liveness", c.live)
	r.GET("/readiness", c.ready)
	if c.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))
	}
}

func (c *Controller) live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (c *Controller) ready(ctx *gin.Context) {
	names := make([]string, 0, len(c.deps))
	for name := range c.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}
	for _, name := range names {
		if err := c.deps[name].Ping(ctx.Request.Context()); err != nil {
			c.log.Warn("ready check failed", "dependency", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "errors": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
