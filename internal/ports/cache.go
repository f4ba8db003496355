package ports

//go:generate mockgen -source=cache.go -destination=../mocks/cache_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// IKeyValueStore — строковое хранилище под кэшем: без транзакций, ёмкость конечна, запись может быть отклонена.
type IKeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// IResultCache — кэш результатов расчёта. Никогда не возвращает ошибок: любой сбой — это промах или неудачная запись.
type IResultCache interface {
	Get(ctx context.Context, key domain.CacheKey) domain.CacheLookup
	Put(ctx context.Context, key domain.CacheKey, result *domain.CalculationResult) domain.CacheWriteStatus
}
