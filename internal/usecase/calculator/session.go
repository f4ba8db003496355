package calculator

import (
	"context"
	"errors"
	"sync"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

const cachedMessage = "Using cached results"

// Session — оркестратор расчёта одного клиента. Каждый вызов Calculate начинает новую попытку
// с новым токеном: предыдущая отменяется, и всё, что она вернёт позже, отбрасывается.
// Наблюдатели видят только снимки текущей попытки.
type Session struct {
	uc *UseCase

	mu        sync.Mutex
	token     uint64
	cancel    context.CancelFunc
	snap      domain.Snapshot
	observers []*observer
	nextObs   uint64
}

type observer struct {
	id uint64
	fn func(domain.Snapshot)
}

// NewSession создаёт сессию в фазе Idle.
func (u *UseCase) NewSession() *Session {
	return &Session{uc: u, snap: domain.Snapshot{Phase: domain.PhaseIdle}}
}

// Subscribe регистрирует наблюдателя. fn вызывается синхронно под замком сессии
// и не должен обращаться к этой же сессии. Возвращает функцию отписки.
func (s *Session) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, &observer{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot возвращает текущее наблюдаемое состояние.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Close отменяет текущую попытку и возвращает сессию в Idle.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
	s.setLocked(domain.Snapshot{Token: s.token, Phase: domain.PhaseIdle})
}

// Calculate выполняет расчёт: кэш, затем поток, при сбое потока — один блокирующий запрос.
// Если во время работы в сессии начался новый расчёт, возвращает domain.ErrSuperseded.
func (s *Session) Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.Calculation, error) {
	u := s.uc
	start := u.now()
	attemptCtx, cancel, token := s.begin(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		return nil, s.fail(token, domain.PhaseCacheCheck, err)
	}

	key := domain.DeriveCacheKey(req)
	s.publish(token, domain.Snapshot{Phase: domain.PhaseCacheCheck})

	lookup := u.cache.Get(attemptCtx, key)
	u.metrics.CacheLookup(lookup.Status)
	if lookup.Hit() {
		calc := u.newCalculation(key, req, lookup.Result, domain.SourceCache)
		if !s.publish(token, domain.Snapshot{
			Phase:       domain.PhaseSuccess,
			Progress:    domain.NewProgress(100, cachedMessage),
			Calculation: calc,
		}) {
			return nil, s.superseded(token)
		}
		u.log.Debug("calculation served from cache", "key", key)
		u.metrics.Completed(domain.SourceCache, u.now().Sub(start))
		return calc, nil
	}

	if !s.publish(token, domain.Snapshot{Phase: domain.PhaseStreaming, Progress: domain.NewProgress(0, "")}) {
		return nil, s.superseded(token)
	}
	result, err := u.stream.Stream(attemptCtx, req, func(p domain.ProgressEvent) {
		s.publish(token, domain.Snapshot{Phase: domain.PhaseStreaming, Progress: p})
	})
	if !s.current(token) {
		return nil, s.superseded(token)
	}

	source := domain.SourceStream
	if err != nil {
		if !domain.Recoverable(err) {
			return nil, s.fail(token, domain.PhaseStreaming, err)
		}
		u.log.Warn("stream failed, falling back to blocking request", "key", key, "error", err)
		u.metrics.Fallback()
		s.update(token, func(sn *domain.Snapshot) { sn.Phase = domain.PhaseFallback })

		result, err = u.fallback.Calculate(attemptCtx, req)
		if !s.current(token) {
			return nil, s.superseded(token)
		}
		if err != nil {
			return nil, s.fail(token, domain.PhaseFallback, err)
		}
		source = domain.SourceFallback
	}

	// Запись в кэш не зависит от судьбы попытки: результат корректен для своего ключа.
	u.metrics.CacheWrite(u.cache.Put(context.WithoutCancel(ctx), key, result))

	calc := u.newCalculation(key, req, result, source)
	if !s.publish(token, domain.Snapshot{Phase: domain.PhaseSuccess, Calculation: calc}) {
		return nil, s.superseded(token)
	}
	u.metrics.Completed(source, u.now().Sub(start))

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.record(context.WithoutCancel(ctx), calc)
	}()
	return calc, nil
}

// begin начинает новую попытку: отменяет предыдущую и выдаёт следующий токен.
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

// publish заменяет снимок, если токен ещё текущий.
func (s *Session) publish(token uint64, snap domain.Snapshot) bool {
	return s.update(token, func(sn *domain.Snapshot) { *sn = snap })
}

// update меняет снимок на месте, если токен ещё текущий, и оповещает наблюдателей.
func (s *Session) update(token uint64, mutate func(*domain.Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	next := s.snap
	mutate(&next)
	next.Token = token
	s.setLocked(next)
	return true
}

func (s *Session) setLocked(snap domain.Snapshot) {
	s.snap = snap
	for _, o := range s.observers {
		o.fn(snap)
	}
}

// fail публикует ошибку текущей попытки. Отмена, вызванная новой попыткой, — ErrSuperseded.
func (s *Session) fail(token uint64, phase domain.Phase, err error) error {
	if !s.publish(token, domain.Snapshot{Phase: domain.PhaseFailed, Err: err}) {
		return s.superseded(token)
	}
	u := s.uc
	u.metrics.Failed(phase)
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		u.log.Warn("calculation failed", "phase", phase, "error", err)
	}
	return err
}

func (s *Session) superseded(token uint64) error {
	s.uc.metrics.Superseded()
	s.uc.log.Debug("calculation superseded", "token", token)
	return domain.ErrSuperseded
}

func (u *UseCase) newCalculation(key domain.CacheKey, req domain.CalculationRequest, result *domain.CalculationResult, source domain.Source) *domain.Calculation {
	return &domain.Calculation{
		ID:          u.newID(),
		Key:         key,
		Request:     req,
		Result:      result,
		Source:      source,
		CompletedAt: u.now(),
	}
}
