package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/PolicyEngine/ACA-Calc/internal/api/http/controllers/system"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/calcservice"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/click"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/explainsvc"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/kafka"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/memstore"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/mongo"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/pg"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/redis"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/sqlite"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/metrics"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/restclient"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
	"github.com/PolicyEngine/ACA-Calc/internal/repository/resultcache"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/calculator"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/explainer"
)

// Core — собранные юзкейсы и инфраструктура, общие для HTTP-сервера и CLI.
type Core struct {
	Log        *slog.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Cache      *resultcache.Cache
	Calculator *calculator.UseCase
	Explainer  *explainer.UseCase

	// Consumer заполнен, если включены Kafka и ClickHouse: читает записи о расчётах в аналитику.
	Consumer *kafka.Consumer
	// Ready — зависимости для readiness.
	Ready map[string]system.Pinger

	closers []func() error
}

// Build подключает инфраструктуру по конфигу и собирает юзкейсы. После использования вызови Close().
func Build(ctx context.Context, cfg Config, log *slog.Logger) (_ *Core, err error) {
	c := &Core{
		Log:      log,
		Registry: prometheus.NewRegistry(),
		Ready:    map[string]system.Pinger{},
	}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(c.Registry)

	store, err := c.buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Cache = resultcache.New(store, log, resultcache.WithTTL(cfg.Cache.TTL))

	rc := restclient.New(AppName)
	stream := calcservice.NewStreamTransport(cfg.Calc, &http.Client{}, log)
	fallback := calcservice.NewInvoker(cfg.Calc, rc, log)

	opts := []calculator.Option{calculator.WithMetrics(c.Metrics)}
	repo, err := c.buildHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		opts = append(opts, calculator.WithHistory(repo))
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(&cfg.Kafka)
		c.closers = append(c.closers, producer.Close)
		opts = append(opts, calculator.WithBroker(producer))
	}
	if cfg.ClickHouse.Enabled {
		writer, err := c.buildAnalytics(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, calculator.WithAnalytics(writer))
	}
	c.Calculator = calculator.New(c.Cache, stream, fallback, log, opts...)

	if cfg.Kafka.Enabled && cfg.ClickHouse.Enabled {
		c.Consumer = kafka.NewConsumer(&cfg.Kafka, c.Calculator, log)
		c.closers = append(c.closers, c.Consumer.Close)
	}

	c.Explainer = explainer.New(explainsvc.New(cfg.Explain, rc, log), log, explainer.WithMetrics(c.Metrics))
	return c, nil
}

func (c *Core) buildStore(ctx context.Context, cfg Config) (ports.IKeyValueStore, error) {
	switch cfg.Cache.Backend {
	case CacheRedis:
		rdb, err := redis.New(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		c.Ready["redis"] = rdb
		return redis.NewStore(rdb, cfg.Redis.EntryTTL, c.Log), nil
	case CacheSQLite:
		st, err := sqlite.Open(ctx, &cfg.SQLite, c.Log)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		c.closers = append(c.closers, st.Close)
		return st, nil
	}
	return memstore.New(cfg.Cache.MemoryCapacity), nil
}

func (c *Core) buildHistory(ctx context.Context, cfg Config) (ports.ICalculationRepository, error) {
	switch cfg.History.Backend {
	case HistoryPG:
		db, err := pg.New(ctx, &cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		if err := pg.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		repo := pg.NewCalculationRepo(db, c.Log)
		c.Ready["history"] = repo
		return repo, nil
	case HistoryMongo:
		client, err := mongo.New(ctx, &cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		c.closers = append(c.closers, func() error { return client.Close(context.Background()) })
		repo := mongo.NewCalculationRepo(client, c.Log)
		c.Ready["history"] = repo
		return repo, nil
	}
	return nil, nil
}

func (c *Core) buildAnalytics(ctx context.Context, cfg Config) (*click.CalculationWriter, error) {
	ch, err := click.New(ctx, &cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	c.closers = append(c.closers, ch.Close)
	writer := click.NewCalculationWriter(ch)
	if err := writer.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse table: %w", err)
	}
	c.Ready["analytics"] = ch
	return writer, nil
}

// Close дожидается фоновых записей и закрывает соединения в обратном порядке.
func (c *Core) Close() error {
	if c.Calculator != nil {
		c.Calculator.Wait()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
