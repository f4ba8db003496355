package ports

//go:generate mockgen -source=calculation.go -destination=../mocks/calculation_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// ICalculationStream — потоковый путь к сервису расчёта. onProgress вызывается в порядке прихода событий.
// Ошибки: *domain.NetworkError, *domain.StreamError, domain.ErrStreamIncomplete, *domain.CalculationFailed.
type ICalculationStream interface {
	Stream(ctx context.Context, req domain.CalculationRequest, onProgress func(domain.ProgressEvent)) (*domain.CalculationResult, error)
}

// ICalculationService — блокирующий путь (fallback): один запрос, без прогресса.
// Ошибки: *domain.CalculationFailed, *domain.NetworkError.
type ICalculationService interface {
	Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error)
}
