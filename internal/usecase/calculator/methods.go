package calculator

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// ErrHistoryDisabled — хранилище истории не настроено.
var ErrHistoryDisabled = errors.New("calculation history is not configured")

// DefaultHistoryLimit — сколько записей истории отдаём, если лимит не задан.
const DefaultHistoryLimit = 50

// History — последние расчёты (обвязка над репозиторием).
func (u *UseCase) History(ctx context.Context, limit int) ([]domain.CalculationRecord, error) {
	if u.repo == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return u.repo.GetHistory(ctx, limit)
}

// HandleCalculationRecord вызывается консьюмером при получении сообщения из топика расчётов.
func (u *UseCase) HandleCalculationRecord(ctx context.Context, rec domain.CalculationRecord) error {
	if u.analytics == nil {
		u.log.Debug("analytics disabled, record dropped", "id", rec.ID)
		return nil
	}
	if err := u.analytics.WriteCalculation(ctx, rec); err != nil {
		u.log.Warn("analytics write", "id", rec.ID, "error", err)
		return err
	}
	u.log.Info("calculation stored to analytics", "id", rec.ID, "state", rec.State, "county", rec.County, "source", rec.Source)
	return nil
}

// record сохраняет посчитанный результат в историю и публикует в брокер. Ошибки только логируются.
func (u *UseCase) record(ctx context.Context, calc *domain.Calculation) {
	if u.repo == nil && u.broker == nil {
		return
	}
	rec := calc.Record()

	if u.repo != nil {
		if err := u.repo.SaveCalculation(ctx, rec); err != nil {
			u.log.Warn("history save", "id", rec.ID, "error", err)
		} else {
			u.log.Info("calculation saved", "id", rec.ID, "key", rec.Key)
		}
	}

	if u.broker == nil {
		return
	}
	value, err := json.Marshal(rec)
	if err != nil {
		u.log.Warn("broker encode", "id", rec.ID, "error", err)
		return
	}
	if err := u.broker.Send(ctx, []byte(rec.ID), value); err != nil {
		u.log.Warn("broker send", "id", rec.ID, "error", err)
	} else {
		u.log.Info("calculation published", "id", rec.ID, "key", rec.Key)
	}
}
