package app

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	apihttp "github.com/PolicyEngine/ACA-Calc/internal/api/http"
	"github.com/PolicyEngine/ACA-Calc/internal/api/http/controllers/calculator"
	"github.com/PolicyEngine/ACA-Calc/internal/api/http/controllers/system"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/logger"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/session"
)

// App — приложение, хранит только конфиг.
type App struct {
	cfg Config
}

// New создаёт приложение с конфигом (инфраструктура подключается в Run).
func New(cfg Config) *App {
	return &App{cfg: cfg}
}

// Run подключает инфраструктуру, запускает HTTP-сервер, выселение сессий и консьюмер аналитики.
// Блокируется до отмены ctx, затем делает graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	log := logger.New(a.cfg.Log)
	slog.SetDefault(log)

	core, err := Build(ctx, a.cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	sessions := session.NewRegistry(core.Calculator, core.Explainer, log,
		session.WithIdleTimeout(a.cfg.Session.IdleTimeout))

	srv := apihttp.NewServer(a.cfg.Server, core.Registry, log)
	srv.AddController(
		system.New(core.Ready, core.Registry, log),
		calculator.New(sessions, core.Calculator, log))

	log.Info("application started",
		"http", a.cfg.Server.Host+":"+a.cfg.Server.Port,
		"calc", a.cfg.Calc.BaseURL,
		"cache", a.cfg.Cache.Backend,
		"history", a.cfg.History.Backend,
		"kafka", a.cfg.Kafka.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		sessions.Run(gctx, a.cfg.Session.EvictInterval)
		return nil
	})
	if core.Consumer != nil {
		g.Go(func() error {
			if err := core.Consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
