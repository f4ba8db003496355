package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.IKeyValueStore = (*Store)(nil)

// Store реализует ports.IKeyValueStore через Redis. Общий для всех экземпляров сервиса:
// результат, посчитанный одним клиентом, виден остальным.
type Store struct {
	cli *Client
	ttl time.Duration
	log *slog.Logger
}

// NewStore возвращает хранилище. ttl — срок жизни ключа в самом Redis (0 — без срока);
// свежесть записи проверяет кэш результатов по своей метке времени.
func NewStore(cli *Client, ttl time.Duration, log *slog.Logger) *Store {
	return &Store{cli: cli, ttl: ttl, log: log}
}

// Get возвращает значение по ключу. Если ключа нет — found == false.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.cli.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) { // ключа нет
			return "", false, nil
		}
		s.log.Debug("redis get failed", "key", key, "error", err)
		return "", false, err
	}
	return v, true, nil
}

// Set сохраняет значение. Дубликаты перезаписываются.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.cli.rdb.Set(ctx, key, value, s.ttl).Err(); err != nil {
		s.log.Debug("redis set failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Delete удаляет ключ.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.cli.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Debug("redis del failed", "key", key, "error", err)
		return err
	}
	return nil
}
