package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/PolicyEngine/ACA-Calc/internal/api/http/middlewares"
)

// ServerConfig — настройки HTTP-сервера. Переменные: ACACALC_SERVER_HOST, ACACALC_SERVER_PORT, ACACALC_SERVER_ALLOW_ORIGINS.
type ServerConfig struct {
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	Port         string `envconfig:"PORT" default:"8080"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173"`
}

func (c ServerConfig) origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Controller — контракт: контроллер регистрирует свои маршруты на роутере.
type Controller interface {
	RegisterRoutes(r *gin.Engine)
}

// Server — API-сервер: конфиг и список контроллеров.
type Server struct {
	cfg         ServerConfig
	reg         prometheus.Registerer
	log         *slog.Logger
	controllers []Controller
	srv         *http.Server
}

// NewServer создаёт сервер с конфигом. HTTP-метрики регистрируются в reg.
func NewServer(cfg ServerConfig, reg prometheus.Registerer, log *slog.Logger) *Server {
	return &Server{cfg: cfg, reg: reg, log: log}
}

// AddController добавляет один или несколько контроллеров.
func (s *Server) AddController(c ...Controller) {
	s.controllers = append(s.controllers, c...)
}

// Handler собирает роутер со всеми мидлварями и контроллерами.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	// Браузерный фронт живёт на другом origin; заголовок сессии должен быть виден скрипту.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.origins(),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middlewares.SessionHeader},
		ExposeHeaders:    []string{middlewares.SessionHeader},
		AllowCredentials: false,
	}))
	r.Use(middlewares.RequestLogger(s.log))
	if s.reg != nil {
		r.Use(middlewares.PrometheusMetrics(s.reg))
	}
	for _, c := range s.controllers {
		c.RegisterRoutes(r)
	}
	return r
}

// Start поднимает роутер, запускает сервер и блокируется до отмены ctx (SIGINT/SIGTERM), затем делает graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:        s.cfg.Host + ":" + s.cfg.Port,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// WriteTimeout не задаём: SSE-поток расчёта живёт дольше любого разумного лимита.
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
