package calcservice

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

const (
	stepComplete = "complete"
	stepError    = "error"
)

const defaultStreamErrorMessage = "calculation failed"

// Event — разобранная запись потока: ProgressEvent, CompleteEvent или ErrorEvent.
type Event interface {
	event()
}

// ProgressEvent — промежуточный шаг расчёта.
type ProgressEvent struct {
	Step    string
	Percent float64
	Message string
}

// CompleteEvent — финальный результат.
type CompleteEvent struct {
	Result *domain.CalculationResult
}

// ErrorEvent — сервер сообщил об ошибке.
type ErrorEvent struct {
	Message string
}

func (ProgressEvent) event() {}
func (CompleteEvent) event() {}
func (ErrorEvent) event()    {}

// Progress переводит событие в доменный прогресс (процент уже прижат к [0,100]).
func (e ProgressEvent) Progress() domain.ProgressEvent {
	return domain.NewProgress(e.Percent, e.Message)
}

type wireEvent struct {
	Step     string                    `json:"step"`
	Progress *float64                  `json:"progress"`
	Message  string                    `json:"message"`
	Error    string                    `json:"error"`
	Result   *domain.CalculationResult `json:"result"`
}

var errUnrecognizedEvent = errors.New("record is neither progress, result nor error")

// ParseEvent разбирает payload записи. Ошибка — запись битая, её пропускают.
func ParseEvent(payload []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("decode stream record: %w", err)
	}
	switch {
	case w.Step == stepError:
		msg := w.Error
		if msg == "" {
			msg = w.Message
		}
		if msg == "" {
			msg = defaultStreamErrorMessage
		}
		return ErrorEvent{Message: msg}, nil
	case w.Step == stepComplete:
		if err := w.Result.Validate(); err != nil {
			return nil, fmt.Errorf("complete record: %w", err)
		}
		return CompleteEvent{Result: w.Result}, nil
	case w.Progress != nil:
		p := domain.NewProgress(*w.Progress, w.Message)
		return ProgressEvent{Step: w.Step, Percent: p.Percent, Message: p.Message}, nil
	}
	return nil, errUnrecognizedEvent
}
