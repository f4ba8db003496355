package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	apihttp "github.com/PolicyEngine/ACA-Calc/internal/api/http"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/calcservice"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/click"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/explainsvc"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/kafka"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/mongo"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/pg"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/redis"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/sqlite"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/logger"
)

// AppName — префикс переменных окружения.
const AppName = "ACACALC"

// DefaultEnvFile — .env, который подхватывается, если путь не задан.
const DefaultEnvFile = ".env"

// Хранилища под кэшем результатов.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// Хранилища истории расчётов.
const (
	HistoryNone  = "none"
	HistoryPG    = "pg"
	HistoryMongo = "mongo"
)

// CacheConfig — кэш результатов. Переменные: ACACALC_CACHE_BACKEND, TTL, MEMORY_CAPACITY.
type CacheConfig struct {
	Backend        string        `envconfig:"BACKEND" default:"memory"`
	TTL            time.Duration `envconfig:"TTL" default:"24h"`
	MemoryCapacity int           `envconfig:"MEMORY_CAPACITY" default:"5242880"` // байт, как у localStorage
}

// HistoryConfig — где хранить историю расчётов. Переменные: ACACALC_HISTORY_BACKEND.
type HistoryConfig struct {
	Backend string `envconfig:"BACKEND" default:"none"`
}

// SessionConfig — клиентские сессии. Переменные: ACACALC_SESSION_IDLE_TIMEOUT, ACACALC_SESSION_EVICT_INTERVAL.
type SessionConfig struct {
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT" default:"30m"`
	EvictInterval time.Duration `envconfig:"EVICT_INTERVAL" default:"1m"`
}

// Config — конфиг приложения. Заполняется через envconfig с префиксом ACACALC.
type Config struct {
	Log        logger.Config        `envconfig:"LOG"`
	Server     apihttp.ServerConfig `envconfig:"SERVER"`
	Calc       calcservice.Config   `envconfig:"CALC"`
	Explain    explainsvc.Config    `envconfig:"EXPLAIN"`
	Cache      CacheConfig          `envconfig:"CACHE"`
	Session    SessionConfig        `envconfig:"SESSION"`
	Redis      redis.Config         `envconfig:"REDIS"`
	SQLite     sqlite.Config        `envconfig:"SQLITE"`
	History    HistoryConfig        `envconfig:"HISTORY"`
	DB         pg.Config            `envconfig:"DB"`
	Mongo      mongo.Config         `envconfig:"MONGO"`
	Kafka      kafka.Config         `envconfig:"KAFKA"`
	ClickHouse click.Config         `envconfig:"CLICKHOUSE"`
}

// Validate проверяет значения, которые envconfig не проверяет сам.
func (c Config) Validate() error {
	var errs []error
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheSQLite:
	default:
		errs = append(errs, fmt.Errorf("cache backend %q: want memory, redis or sqlite", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL))
	}
	switch c.History.Backend {
	case HistoryNone, HistoryPG, HistoryMongo:
	default:
		errs = append(errs, fmt.Errorf("history backend %q: want none, pg or mongo", c.History.Backend))
	}
	if c.ClickHouse.Enabled && !c.Kafka.Enabled {
		errs = append(errs, errors.New("clickhouse analytics reads calculation records from kafka: enable kafka too"))
	}
	if c.Session.EvictInterval <= 0 {
		errs = append(errs, errors.New("session evict interval must be positive"))
	}
	return errors.Join(errs...)
}

// LoadCfg загружает конфиг: подтягивает .env (godotenv), затем заполняет структуру из окружения (envconfig).
// Пустой envFile — DefaultEnvFile. Отсутствие файла не ошибка.
func LoadCfg(envFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: .env не прочитан, используем окружение", "file", envFile, "error", err)
	}

	var cfg Config
	if err := envconfig.Process(AppName, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
