package calculator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/mocks"
)

// newTestLogger создаёт логгер для тестов (выводит только ошибки, чтобы не засорять вывод).
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seqIDs — предсказуемые идентификаторы расчётов calc-1, calc-2, ...
func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("calc-%d", n)
	}
}

// recorder собирает снимки, которые видит наблюдатель.
type recorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recorder) add(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Snapshot(nil), r.snaps...)
}

func (r *recorder) phases() []domain.Phase {
	var out []domain.Phase
	for _, s := range r.all() {
		out = append(out, s.Phase)
	}
	return out
}

func (r *recorder) percents() []float64 {
	var out []float64
	for _, s := range r.all() {
		if s.Phase == domain.PhaseStreaming {
			out = append(out, s.Progress.Percent)
		}
	}
	return out
}

func lebanonRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		AgeHead:       45,
		DependentAges: []int{},
		State:         "PA",
		County:        "Lebanon County",
		Policies:      domain.Policies{IRA: true},
	}
}

func result(fpl float64) *domain.CalculationResult {
	return &domain.CalculationResult{
		Income:      []float64{0, 50000, 100000},
		PTCBaseline: []float64{6000, 2000, 0},
		PTCIRA:      []float64{6000, 3000, 500},
		PTC700FPL:   []float64{6000, 3000, 900},
		FPL:         fpl,
		SLCSP:       7200,
	}
}

type deps struct {
	cache    *mocks.MockIResultCache
	stream   *mocks.MockICalculationStream
	fallback *mocks.MockICalculationService
}

func newDeps(ctrl *gomock.Controller) deps {
	return deps{
		cache:    mocks.NewMockIResultCache(ctrl),
		stream:   mocks.NewMockICalculationStream(ctrl),
		fallback: mocks.NewMockICalculationService(ctrl),
	}
}

func (d deps) useCase(opts ...Option) *UseCase {
	opts = append([]Option{WithIDGenerator(seqIDs())}, opts...)
	return New(d.cache, d.stream, d.fallback, newTestLogger(), opts...)
}

// streamWith возвращает поведение мока потока: отдать прогресс и завершиться результатом или ошибкой.
func streamWith(res *domain.CalculationResult, err error, percents ...float64) func(context.Context, domain.CalculationRequest, func(domain.ProgressEvent)) (*domain.CalculationResult, error) {
	return func(_ context.Context, _ domain.CalculationRequest, onProgress func(domain.ProgressEvent)) (*domain.CalculationResult, error) {
		for _, p := range percents {
			onProgress(domain.NewProgress(p, fmt.Sprintf("step %v", p)))
		}
		return res, err
	}
}

// Cache Hit — результат из кэша, сеть не трогаем.
func TestCalculate_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	req := lebanonRequest()
	key := domain.DeriveCacheKey(req)

	d.cache.EXPECT().Get(gomock.Any(), key).Return(domain.CacheLookup{Status: domain.CacheHit, Result: result(15650)})
	// stream, fallback и Put не вызываются

	s := d.useCase().NewSession()
	rec := &recorder{}
	s.Subscribe(rec.add)

	calc, err := s.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, calc.FromCache())
	assert.Equal(t, "calc-1", calc.ID)
	assert.Equal(t, key, calc.Key)
	assert.Equal(t, result(15650), calc.Result)

	assert.Equal(t, []domain.Phase{domain.PhaseCacheCheck, domain.PhaseSuccess}, rec.phases())
	last := s.Snapshot()
	assert.Equal(t, domain.NewProgress(100, "Using cached results"), last.Progress)
	assert.Same(t, calc, last.Calculation)
}

// Cache Miss — поток, запись в кэш, история и брокер.
func TestCalculate_StreamSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	repo := mocks.NewMockICalculationRepository(ctrl)
	broker := mocks.NewMockIProducer(ctrl)
	req := lebanonRequest()
	key := domain.DeriveCacheKey(req)

	gomock.InOrder(
		d.cache.EXPECT().Get(gomock.Any(), key).Return(domain.CacheLookup{Status: domain.CacheMiss}),
		d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).DoAndReturn(streamWith(result(15650), nil, 10, 55, 100)),
		d.cache.EXPECT().Put(gomock.Any(), key, result(15650)).Return(domain.CacheStored),
	)
	repo.EXPECT().SaveCalculation(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec domain.CalculationRecord) error {
		assert.Equal(t, "calc-1", rec.ID)
		assert.Equal(t, domain.SourceStream, rec.Source)
		assert.Equal(t, 1, rec.HouseholdSize)
		assert.Equal(t, 15650.0, rec.FPL)
		return nil
	})
	broker.EXPECT().Send(gomock.Any(), []byte("calc-1"), gomock.Any()).Return(nil)

	uc := d.useCase(WithHistory(repo), WithBroker(broker))
	s := uc.NewSession()
	rec := &recorder{}
	s.Subscribe(rec.add)

	calc, err := s.Calculate(context.Background(), req)
	uc.Wait()
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStream, calc.Source)
	assert.False(t, calc.FromCache())

	assert.Equal(t, []domain.Phase{
		domain.PhaseCacheCheck,
		domain.PhaseStreaming, domain.PhaseStreaming, domain.PhaseStreaming, domain.PhaseStreaming,
		domain.PhaseSuccess,
	}, rec.phases())
	assert.Equal(t, []float64{0, 10, 55, 100}, rec.percents())
	// прогресс очищен после успеха
	assert.Equal(t, domain.ProgressEvent{}, s.Snapshot().Progress)
}

// Поток отдал два события и упал — ровно один блокирующий запрос, его результат публикуется и кэшируется.
func TestCalculate_FallbackAfterStreamError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	req := lebanonRequest()
	key := domain.DeriveCacheKey(req)

	gomock.InOrder(
		d.cache.EXPECT().Get(gomock.Any(), key).Return(domain.CacheLookup{Status: domain.CacheMiss}),
		d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).
			DoAndReturn(streamWith(nil, &domain.StreamError{Message: "worker died"}, 10, 55)),
		d.fallback.EXPECT().Calculate(gomock.Any(), req).Return(result(15650), nil).Times(1),
		d.cache.EXPECT().Put(gomock.Any(), key, result(15650)).Return(domain.CacheStored),
	)

	s := d.useCase().NewSession()
	rec := &recorder{}
	s.Subscribe(rec.add)

	calc, err := s.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, calc.Source)
	assert.Equal(t, result(15650), calc.Result)

	snaps := rec.all()
	require.Len(t, snaps, 6)
	assert.Equal(t, domain.PhaseFallback, snaps[4].Phase)
	assert.Equal(t, 55.0, snaps[4].Progress.Percent, "прогресс замирает на время блокирующего запроса")
	assert.Equal(t, domain.PhaseSuccess, snaps[5].Phase)
	assert.Same(t, calc, snaps[5].Calculation)
}

func TestCalculate_FallbackOnRecoverableErrors(t *testing.T) {
	errs := map[string]error{
		"оборванный поток": domain.ErrStreamIncomplete,
		"сеть":             &domain.NetworkError{Op: "stream", Err: errors.New("connection reset")},
		"таймаут потока":   &domain.NetworkError{Op: "stream", Err: context.DeadlineExceeded},
	}
	for name, streamErr := range errs {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			d := newDeps(ctrl)
			req := lebanonRequest()

			d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.CacheLookup{Status: domain.CacheUnavailable})
			d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).Return(nil, streamErr)
			d.fallback.EXPECT().Calculate(gomock.Any(), req).Return(result(15650), nil)
			d.cache.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CacheStoreFailed)

			calc, err := d.useCase().NewSession().Calculate(context.Background(), req)
			require.NoError(t, err, "сбой записи в кэш не ошибка расчёта")
			assert.Equal(t, domain.SourceFallback, calc.Source)
		})
	}
}

// Структурированная ошибка сервиса — сразу Failed, без блокирующего запроса.
func TestCalculate_CalculationFailedSkipsFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	req := lebanonRequest()
	failed := &domain.CalculationFailed{Status: 400, Detail: "County not found"}

	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.CacheLookup{Status: domain.CacheMiss})
	d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).Return(nil, failed)

	s := d.useCase().NewSession()
	_, err := s.Calculate(context.Background(), req)
	assert.ErrorIs(t, err, failed)

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseFailed, snap.Phase)
	assert.Nil(t, snap.Calculation)
	assert.Equal(t, "County not found", domain.UserMessage(snap.Err))
}

func TestCalculate_FallbackFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	req := lebanonRequest()
	fallbackErr := &domain.NetworkError{Op: "fallback", Err: errors.New("no route to host")}

	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.CacheLookup{Status: domain.CacheMiss})
	d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).Return(nil, domain.ErrStreamIncomplete)
	d.fallback.EXPECT().Calculate(gomock.Any(), req).Return(nil, fallbackErr)
	// Put не вызывается

	s := d.useCase().NewSession()
	_, err := s.Calculate(context.Background(), req)
	assert.ErrorIs(t, err, fallbackErr)
	assert.Equal(t, domain.PhaseFailed, s.Snapshot().Phase)
}

// Невалидный ввод — Failed без ввода-вывода.
func TestCalculate_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)

	req := lebanonRequest()
	req.Policies = domain.Policies{}

	s := d.useCase().NewSession()
	rec := &recorder{}
	s.Subscribe(rec.add)

	_, err := s.Calculate(context.Background(), req)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.Phase{domain.PhaseFailed}, rec.phases())
}

func TestCalculate_CallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	req := lebanonRequest()

	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.CacheLookup{Status: domain.CacheMiss})
	d.stream.EXPECT().Stream(gomock.Any(), req, gomock.Any()).Return(nil, context.Canceled)

	s := d.useCase().NewSession()
	_, err := s.Calculate(context.Background(), req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.PhaseFailed, s.Snapshot().Phase)
}

// Попытку A вытесняет B: ничего из A после старта B не видно, итог — результат B.
func TestCalculate_StaleAttemptIsSuppressed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)

	reqA := lebanonRequest()
	reqB := lebanonRequest()
	reqB.County = "Lancaster County"
	keyA, keyB := domain.DeriveCacheKey(reqA), domain.DeriveCacheKey(reqB)

	started := make(chan struct{})
	release := make(chan struct{})
	var ctxA context.Context

	d.cache.EXPECT().Get(gomock.Any(), keyA).Return(domain.CacheLookup{Status: domain.CacheMiss})
	d.stream.EXPECT().Stream(gomock.Any(), reqA, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.CalculationRequest, onProgress func(domain.ProgressEvent)) (*domain.CalculationResult, error) {
			ctxA = ctx
			onProgress(domain.NewProgress(10, "A early"))
			close(started)
			// транспорт, который не слушает отмену: результат приходит поздно
			<-release
			onProgress(domain.NewProgress(90, "A late"))
			return result(11111), nil
		})
	d.cache.EXPECT().Get(gomock.Any(), keyB).Return(domain.CacheLookup{Status: domain.CacheMiss})
	d.stream.EXPECT().Stream(gomock.Any(), reqB, gomock.Any()).DoAndReturn(streamWith(result(22222), nil, 55))
	d.cache.EXPECT().Put(gomock.Any(), keyB, result(22222)).Return(domain.CacheStored)
	// Put для A не ожидается

	s := d.useCase().NewSession()
	rec := &recorder{}
	s.Subscribe(rec.add)

	errA := make(chan error, 1)
	go func() {
		_, err := s.Calculate(context.Background(), reqA)
		errA <- err
	}()
	<-started

	calcB, err := s.Calculate(context.Background(), reqB)
	require.NoError(t, err)
	assert.ErrorIs(t, ctxA.Err(), context.Canceled, "попытка A отменена")

	close(release)
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, domain.ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("попытка A не завершилась")
	}

	snaps := rec.all()
	tokenB := s.Snapshot().Token
	seenB := false
	for _, sn := range snaps {
		if sn.Token == tokenB {
			seenB = true
		}
		if seenB {
			assert.Equal(t, tokenB, sn.Token, "после старта B видны только его снимки")
		}
		assert.NotEqual(t, "A late", sn.Progress.Message)
	}
	last := snaps[len(snaps)-1]
	assert.Equal(t, domain.PhaseSuccess, last.Phase)
	assert.Same(t, calcB, last.Calculation)
	assert.Equal(t, 22222.0, last.Calculation.Result.FPL)
}

func TestSession_UnsubscribeAndClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := newDeps(ctrl)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.CacheLookup{Status: domain.CacheHit, Result: result(15650)})

	s := d.useCase().NewSession()
	assert.Equal(t, domain.PhaseIdle, s.Snapshot().Phase)

	kept, dropped := &recorder{}, &recorder{}
	s.Subscribe(kept.add)
	unsubscribe := s.Subscribe(dropped.add)
	unsubscribe()

	_, err := s.Calculate(context.Background(), lebanonRequest())
	require.NoError(t, err)
	assert.Len(t, kept.all(), 2)
	assert.Empty(t, dropped.all())

	s.Close()
	assert.Equal(t, domain.PhaseIdle, s.Snapshot().Phase)
	assert.Nil(t, s.Snapshot().Calculation)
}
