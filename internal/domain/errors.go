package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamIncomplete — поток закрылся без завершающего события.
var ErrStreamIncomplete = errors.New("calculation stream ended without a terminal event")

// ErrSuperseded — попытку вытеснил более новый запрос той же сессии; её результат отброшен.
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrNoResult — объяснение запрошено до появления результата расчёта.
var ErrNoResult = errors.New("no calculation result to explain")

// ValidationError — некорректный ввод. Ввод/вывод не выполнялся.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError — транспорт недоступен или оборвался.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StreamError — сервер сообщил об ошибке внутри потока.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "calculation stream error: " + e.Message
}

// CalculationFailed — структурированная ошибка сервиса расчёта. Отдаётся наблюдателю без fallback.
type CalculationFailed struct {
	Status int
	Detail string
}

func (e *CalculationFailed) Error() string {
	if e.Status == 0 {
		return "calculation failed: " + e.Detail
	}
	return fmt.Sprintf("calculation failed (status %d): %s", e.Status, e.Detail)
}

// ExplanationFailed — ошибка получения объяснения. На показанный результат расчёта не влияет.
type ExplanationFailed struct {
	Status int
	Detail string
	Err    error
}

func (e *ExplanationFailed) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("explanation failed: %s: %v", e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("explanation failed: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("explanation failed (status %d): %s", e.Status, e.Detail)
	}
	return "explanation failed: " + e.Detail
}

func (e *ExplanationFailed) Unwrap() error { return e.Err }

// Recoverable сообщает, можно ли после ошибки потокового пути попробовать блокирующий запрос.
// Структурированные ошибки сервиса, невалидный ввод и отмена вызывающим — нельзя.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	var failed *CalculationFailed
	var invalid *ValidationError
	switch {
	case errors.As(err, &failed), errors.As(err, &invalid):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Таймаут самого транспорта приходит как NetworkError и остаётся восстановимым.
		var netErr *NetworkError
		return errors.As(err, &netErr)
	}
	return true
}

const genericFailureMessage = "Something went wrong while calculating. Please try again."

// UserMessage — текст для пользователя: сообщение сервера, если есть, иначе общий текст.
func UserMessage(err error) string {
	var (
		failed  *CalculationFailed
		invalid *ValidationError
		stream  *StreamError
		expl    *ExplanationFailed
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.As(err, &failed) && failed.Detail != "":
		return failed.Detail
	case errors.As(err, &stream) && stream.Message != "":
		return stream.Message
	case errors.As(err, &expl) && expl.Detail != "":
		return expl.Detail
	}
	return genericFailureMessage
}
