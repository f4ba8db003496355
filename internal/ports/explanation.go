package ports

//go:generate mockgen -source=explanation.go -destination=../mocks/explanation_mock.go -package=mocks

import (
	"context"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// IExplanationService — внешний сервис повествования. Ошибки: *domain.ExplanationFailed.
type IExplanationService interface {
	Explain(ctx context.Context, req domain.ExplanationRequest) (*domain.ExplanationResult, error)
}
