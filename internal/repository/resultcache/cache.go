package resultcache

import (
	"context"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

const (
	// KeyPrefix — пространство имён записей кэша в общем хранилище.
	KeyPrefix = "aca_calc:"
	// DefaultTTL — сколько живёт результат расчёта.
	DefaultTTL = 24 * time.Hour
)

var _ ports.IResultCache = (*Cache)(nil)

// entry — формат значения в хранилище: результат и время записи в unix-миллисекундах.
type entry struct {
	Data      *domain.CalculationResult `json:"data"`
	Timestamp int64                     `json:"timestamp"`
}

// Cache реализует ports.IResultCache поверх строкового хранилища.
// Ошибок наружу не отдаёт: сбой чтения — промах, сбой записи — статус записи.
type Cache struct {
	store ports.IKeyValueStore
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

// Option настраивает Cache.
type Option func(*Cache)

// WithTTL задаёт время жизни записи. Неположительное значение игнорируется.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт кэш результатов над хранилищем store.
func New(store ports.IKeyValueStore, log *slog.Logger, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: DefaultTTL, now: time.Now, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL возвращает действующее время жизни записи.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func storeKey(key domain.CacheKey) string {
	return KeyPrefix + string(key)
}

// Get читает результат. Просроченные и битые записи удаляются по ходу чтения.
func (c *Cache) Get(ctx context.Context, key domain.CacheKey) domain.CacheLookup {
	sk := storeKey(key)
	raw, found, err := c.store.Get(ctx, sk)
	if err != nil {
		c.log.Warn("cache read failed", "key", sk, "error", err)
		return domain.CacheLookup{Status: domain.CacheUnavailable}
	}
	if !found {
		return domain.CacheLookup{Status: domain.CacheMiss}
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.log.Warn("cache entry corrupt", "key", sk, "error", err)
		c.evict(ctx, sk)
		return domain.CacheLookup{Status: domain.CacheCorrupt}
	}
	if e.Timestamp <= 0 || e.Data.Validate() != nil {
		c.log.Warn("cache entry malformed", "key", sk)
		c.evict(ctx, sk)
		return domain.CacheLookup{Status: domain.CacheCorrupt}
	}

	storedAt := time.UnixMilli(e.Timestamp)
	if c.now().Sub(storedAt) > c.ttl {
		c.log.Debug("cache entry expired", "key", sk, "stored_at", storedAt)
		c.evict(ctx, sk)
		return domain.CacheLookup{Status: domain.CacheExpired, StoredAt: storedAt}
	}
	return domain.CacheLookup{Status: domain.CacheHit, Result: e.Data, StoredAt: storedAt}
}

// Put сохраняет результат с текущим временем. Повторная запись по тому же ключу заменяет старую.
func (c *Cache) Put(ctx context.Context, key domain.CacheKey, result *domain.CalculationResult) domain.CacheWriteStatus {
	sk := storeKey(key)
	if result == nil {
		c.log.Warn("cache write skipped: empty result", "key", sk)
		return domain.CacheEncodeFailed
	}
	value, err := json.Marshal(entry{Data: result, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.log.Warn("cache encode failed", "key", sk, "error", err)
		return domain.CacheEncodeFailed
	}
	if err := c.store.Set(ctx, sk, string(value)); err != nil {
		c.log.Warn("cache write failed", "key", sk, "error", err)
		return domain.CacheStoreFailed
	}
	return domain.CacheStored
}

func (c *Cache) evict(ctx context.Context, sk string) {
	if err := c.store.Delete(ctx, sk); err != nil {
		c.log.Debug("cache evict failed", "key", sk, "error", err)
	}
}
