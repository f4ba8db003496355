package ports

//go:generate mockgen -source=repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// ICalculationRepository — контракт сохранения и чтения истории расчётов.
type ICalculationRepository interface {
	SaveCalculation(ctx context.Context, rec domain.CalculationRecord) error
	GetHistory(ctx context.Context, limit int) ([]domain.CalculationRecord, error)
	Ping(ctx context.Context) error
}
