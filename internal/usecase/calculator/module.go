package calculator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PolicyEngine/ACA-Calc/internal/pkg/metrics"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.ICalculatorUseCase = (*UseCase)(nil)

// UseCase — общие зависимости оркестратора расчётов. Сам расчёт идёт в сессиях (NewSession):
// у каждой свой токен попытки, а кэш результатов один на все сессии.
type UseCase struct {
	cache     ports.IResultCache
	stream    ports.ICalculationStream
	fallback  ports.ICalculationService
	repo      ports.ICalculationRepository
	broker    ports.IProducer
	analytics ports.ICalculationAnalytics
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
	log       *slog.Logger

	// фоновые записи в историю и брокер
	wg sync.WaitGroup
}

// Option настраивает UseCase. История, брокер и аналитика необязательны.
type Option func(*UseCase)

// WithHistory включает сохранение расчётов в репозиторий.
func WithHistory(repo ports.ICalculationRepository) Option {
	return func(u *UseCase) { u.repo = repo }
}

// WithBroker включает публикацию расчётов в брокер.
func WithBroker(p ports.IProducer) Option {
	return func(u *UseCase) { u.broker = p }
}

// WithAnalytics задаёт приёмник событий из брокера.
func WithAnalytics(a ports.ICalculationAnalytics) Option {
	return func(u *UseCase) { u.analytics = a }
}

// WithMetrics включает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *UseCase) { u.metrics = m }
}

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) { u.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов расчётов.
func WithIDGenerator(gen func() string) Option {
	return func(u *UseCase) { u.newID = gen }
}

// New создаёт юзкейс расчётов.
func New(cache ports.IResultCache, stream ports.ICalculationStream, fallback ports.ICalculationService, log *slog.Logger, opts ...Option) *UseCase {
	u := &UseCase{
		cache:    cache,
		stream:   stream,
		fallback: fallback,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Wait дожидается фоновых записей в историю и брокер (graceful shutdown, тесты).
func (u *UseCase) Wait() {
	u.wg.Wait()
}
