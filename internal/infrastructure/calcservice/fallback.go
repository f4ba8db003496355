package calcservice

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/restclient"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.ICalculationService = (*Invoker)(nil)

// Invoker — блокирующий путь: один POST, ответ целиком.
type Invoker struct {
	cfg    Config
	client *restclient.Client
	log    *slog.Logger
}

// NewInvoker создаёт клиента блокирующего эндпоинта.
func NewInvoker(cfg Config, client *restclient.Client, log *slog.Logger) *Invoker {
	if client == nil {
		client = restclient.New("acacalc")
	}
	return &Invoker{cfg: cfg, client: client, log: log}
}

// Calculate выполняет расчёт одним запросом. Не-2xx — *domain.CalculationFailed с detail из тела,
// сбой транспорта — *domain.NetworkError, отмена ctx — ctx.Err().
func (i *Invoker) Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	body, err := requestBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode calculate request: %w", err)
	}

	resp, err := i.client.PostJSON(ctx, i.cfg.calculateURL(), body, i.cfg.FallbackTimeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.NetworkError{Op: "fallback", Err: err}
	}
	if !resp.OK() {
		detail := errorDetail(resp.Body)
		i.log.Warn("calculate request rejected", "status", resp.Status, "detail", detail)
		return nil, &domain.CalculationFailed{Status: resp.Status, Detail: detail}
	}

	var result domain.CalculationResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, &domain.CalculationFailed{Status: resp.Status, Detail: "invalid calculation response"}
	}
	if err := result.Validate(); err != nil {
		i.log.Warn("calculate response rejected", "error", err)
		return nil, &domain.CalculationFailed{Status: resp.Status, Detail: "invalid calculation response"}
	}
	return &result, nil
}
