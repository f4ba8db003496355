package domain

import "time"

// CacheStatus — исход чтения из кэша результатов. Любой исход, кроме CacheHit, — промах.
type CacheStatus int

const (
	CacheMiss CacheStatus = iota
	CacheHit
	CacheExpired
	CacheCorrupt
	CacheUnavailable
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheExpired:
		return "expired"
	case CacheCorrupt:
		return "corrupt"
	case CacheUnavailable:
		return "unavailable"
	}
	return "miss"
}

// CacheLookup — результат чтения. Result заполнен только при CacheHit.
type CacheLookup struct {
	Status   CacheStatus
	Result   *CalculationResult
	StoredAt time.Time
}

// Hit сообщает, что результат можно использовать.
func (l CacheLookup) Hit() bool {
	return l.Status == CacheHit && l.Result != nil
}

// CacheWriteStatus — исход записи в кэш. Запись best-effort, неудача не ошибка расчёта.
type CacheWriteStatus int

const (
	CacheStored CacheWriteStatus = iota
	CacheEncodeFailed
	CacheStoreFailed
)

func (s CacheWriteStatus) String() string {
	switch s {
	case CacheEncodeFailed:
		return "encode_failed"
	case CacheStoreFailed:
		return "store_failed"
	}
	return "stored"
}
