package domain

import "math"

// ProgressEvent — промежуточный прогресс расчёта. Не сохраняется, каждое новое событие заменяет предыдущее.
type ProgressEvent struct {
	Percent float64 `json:"progress"`
	Message string  `json:"message,omitempty"`
}

// NewProgress создаёт событие, прижимая процент к [0,100].
func NewProgress(percent float64, message string) ProgressEvent {
	switch {
	case percent < 0 || math.IsNaN(percent):
		percent = 0
	case percent > 100:
		percent = 100
	}
	return ProgressEvent{Percent: percent, Message: message}
}

// Phase — состояние машины оркестратора расчёта.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCacheCheck Phase = "cache_check"
	PhaseStreaming  Phase = "streaming"
	PhaseFallback   Phase = "fallback"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// Terminal сообщает, что фаза конечная для попытки.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailed
}

// Snapshot — наблюдаемое состояние сессии расчёта. Token — поколение попытки, к которой относится снимок.
type Snapshot struct {
	Token       uint64
	Phase       Phase
	Progress    ProgressEvent
	Calculation *Calculation
	Err         error
}
