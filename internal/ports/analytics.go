package ports

//go:generate mockgen -source=analytics.go -destination=../mocks/analytics_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// ICalculationAnalytics — запись расчётов в хранилище для аналитики (например, ClickHouse).
type ICalculationAnalytics interface {
	WriteCalculation(ctx context.Context, rec domain.CalculationRecord) error
}
