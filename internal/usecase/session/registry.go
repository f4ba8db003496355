// Package session связывает сессии расчёта и объяснений одного клиента (вкладки браузера, CLI)
// и выселяет простаивающие.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/calculator"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/explainer"
)

// DefaultIdleTimeout — через сколько без обращений сессия выселяется.
const DefaultIdleTimeout = 30 * time.Minute

// Entry — пара сессий одного клиента и последний успешный расчёт.
type Entry struct {
	ID      string
	Calc    *calculator.Session
	Explain *explainer.Session

	mu       sync.Mutex
	last     *domain.Calculation
	lastSeen time.Time
	unsub    func()
}

// LastCalculation — последний успешный расчёт сессии. Ошибка следующего расчёта его не сбрасывает.
func (e *Entry) LastCalculation() *domain.Calculation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Entry) observe(s domain.Snapshot) {
	if s.Phase != domain.PhaseSuccess || s.Calculation == nil {
		return
	}
	e.mu.Lock()
	e.last = s.Calculation
	e.mu.Unlock()
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

func (e *Entry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

func (e *Entry) close() {
	e.unsub()
	e.Calc.Close()
	e.Explain.Close()
}

// Registry — сессии по идентификатору.
type Registry struct {
	calc    *calculator.UseCase
	explain *explainer.UseCase
	idle    time.Duration
	now     func() time.Time
	newID   func() string
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// Option настраивает Registry.
type Option func(*Registry)

// WithIdleTimeout задаёт время простоя до выселения.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idle = d }
}

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов сессий.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(calc *calculator.UseCase, explain *explainer.UseCase, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		calc:    calc,
		explain: explain,
		idle:    DefaultIdleTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
		log:     log,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open возвращает сессию по id, создавая её при необходимости. Пустой id — новая сессия.
func (r *Registry) Open(id string) *Entry {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if e, ok := r.entries[id]; ok {
			e.touch(now)
			return e
		}
	} else {
		id = r.newID()
	}
	e := &Entry{
		ID:       id,
		Calc:     r.calc.NewSession(),
		Explain:  r.explain.NewSession(),
		lastSeen: now,
	}
	e.unsub = e.Calc.Subscribe(e.observe)
	r.entries[id] = e
	r.log.Debug("session opened", "session", id)
	return e
}

// Get возвращает существующую сессию.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if ok {
		e.touch(r.now())
	}
	return e, ok
}

// Close закрывает и удаляет сессию.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		e.close()
	}
	return ok
}

// Len — число открытых сессий.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Evict закрывает сессии, простаивающие дольше таймаута. Возвращает число выселенных.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*Entry
	r.mu.Lock()
	for id, e := range r.entries {
		if e.idleSince().Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.close()
	}
	if len(stale) > 0 {
		r.log.Info("idle sessions evicted", "count", len(stale))
	}
	return len(stale)
}

// Run периодически выселяет простаивающие сессии, пока не отменён ctx. На выходе закрывает все сессии.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()
	for _, e := range entries {
		e.close()
	}
}
