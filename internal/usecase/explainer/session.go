package explainer

import (
	"context"
	"errors"
	"sync"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// Session — объяснения для одного клиента. Более новый вызов Explain вытесняет прежние;
// автозапуск срабатывает не больше одного раза на расчёт.
type Session struct {
	uc *UseCase

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	fired  map[string]struct{}
}

// NewSession создаёт сессию объяснений.
func (u *UseCase) NewSession() *Session {
	return &Session{uc: u, fired: make(map[string]struct{})}
}

// Explain запрашивает объяснение расчёта. Ошибки сервиса — *domain.ExplanationFailed;
// если во время запроса начался новый, возвращает domain.ErrSuperseded.
func (s *Session) Explain(ctx context.Context, calc *domain.Calculation) (*domain.ExplanationResult, error) {
	u := s.uc
	req, err := u.BuildRequest(calc)
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel, token := s.begin(ctx)
	defer cancel()

	res, err := u.svc.Explain(attemptCtx, req)
	if !s.current(token) {
		u.metrics.Explanation("superseded")
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		u.metrics.Explanation("failed")
		if !errors.Is(err, context.Canceled) {
			u.log.Warn("explanation failed", "calculation", calc.ID, "error", err)
		}
		return nil, err
	}
	u.metrics.Explanation("ok")
	return res, nil
}

// AutoExplain запускает объяснение, если включён автопоказ и для этого расчёта ещё не запускалось.
// Латч ставится до запроса и больше не снимается, даже при ошибке: повтор только через Explain.
// fired=false означает, что запроса не было.
func (s *Session) AutoExplain(ctx context.Context, calc *domain.Calculation, enabled bool) (res *domain.ExplanationResult, fired bool, err error) {
	if !enabled || calc == nil || calc.Result == nil {
		return nil, false, nil
	}
	if !s.arm(calc.ID) {
		return nil, false, nil
	}
	res, err = s.Explain(ctx, calc)
	return res, true, err
}

// Fired сообщает, срабатывал ли автозапуск для расчёта.
func (s *Session) Fired(calcID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fired[calcID]
	return ok
}

// Close отменяет текущий запрос объяснения.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
}

// arm ставит латч для расчёта. false — латч уже стоял.
func (s *Session) arm(calcID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fired[calcID]; ok {
		return false
	}
	s.fired[calcID] = struct{}{}
	return true
}

func (s *Session) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	attemptCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.token++
	return attemptCtx, cancel, s.token
}

func (s *Session) current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}
