package ports

//go:generate mockgen -source=usecase.go -destination=../mocks/usecase_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// ICalculatorUseCase — общая часть бизнес-логики расчётов: история и обработка событий из Kafka.
// Сам расчёт идёт через сессии (см. usecase/session), у каждой свой токен попытки.
type ICalculatorUseCase interface {
	History(ctx context.Context, limit int) ([]domain.CalculationRecord, error)
	HandleCalculationRecord(ctx context.Context, rec domain.CalculationRecord) error
}
