package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// ErrStoreFull — запись не помещается в ёмкость хранилища.
var ErrStoreFull = errors.New("memstore: capacity exceeded")

// DefaultCapacity — ёмкость по умолчанию в байтах (ключи + значения), порядка браузерного localStorage.
const DefaultCapacity = 5 << 20

var _ ports.IKeyValueStore = (*Store)(nil)

// Store — строковое хранилище в памяти процесса с ограниченной ёмкостью.
// При переполнении запись отклоняется, старые записи не вытесняются.
type Store struct {
	mu       sync.RWMutex
	capacity int
	size     int
	items    map[string]string
}

// New создаёт хранилище. capacity <= 0 — DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, items: make(map[string]string)}
}

// Get возвращает значение по ключу.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// Set записывает значение, заменяя прежнее. ErrStoreFull, если новая запись не влезает.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	newSize := s.size + len(key) + len(value)
	if old, ok := s.items[key]; ok {
		newSize -= len(key) + len(old)
	}
	if newSize > s.capacity {
		return ErrStoreFull
	}
	s.items[key] = value
	s.size = newSize
	return nil
}

// Delete удаляет ключ. Отсутствующий ключ не ошибка.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// Len — число записей.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Size — занятый объём в байтах.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
