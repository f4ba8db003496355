package explainer

import (
	"log/slog"

	"github.com/PolicyEngine/ACA-Calc/internal/pkg/eligibility"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/metrics"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// UseCase — оркестратор объяснений: строит производный запрос из готового расчёта
// и отправляет его сервису объяснений. Состояние (латч автозапуска) живёт в сессиях.
type UseCase struct {
	svc     ports.IExplanationService
	table   *eligibility.Table
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option настраивает UseCase.
type Option func(*UseCase)

// WithMetrics включает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *UseCase) { u.metrics = m }
}

// WithEligibility подменяет таблицу порогов Medicaid/CHIP.
func WithEligibility(t *eligibility.Table) Option {
	return func(u *UseCase) { u.table = t }
}

// New создаёт юзкейс объяснений. По умолчанию используется встроенная таблица порогов.
func New(svc ports.IExplanationService, log *slog.Logger, opts ...Option) *UseCase {
	u := &UseCase{svc: svc, log: log}
	for _, opt := range opts {
		opt(u)
	}
	if u.table == nil {
		u.table = eligibility.Default()
	}
	return u
}
