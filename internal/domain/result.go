package domain

import (
	"errors"
	"fmt"
	"time"
)

// Scenario — именованный вариант политики, для которого сервис возвращает параллельную кривую.
type Scenario string

const (
	ScenarioBaseline Scenario = "baseline"
	ScenarioIRA      Scenario = "ira"
	Scenario700FPL   Scenario = "700fpl"
)

// Scenarios — все сценарии в порядке отображения.
var Scenarios = []Scenario{ScenarioBaseline, ScenarioIRA, Scenario700FPL}

// CalculationResult — итог расчёта: сетка доходов и по кривой налогового кредита на сценарий.
// После создания не изменяется.
type CalculationResult struct {
	Income      []float64 `json:"income"`
	PTCBaseline []float64 `json:"ptc_baseline"`
	PTCIRA      []float64 `json:"ptc_ira"`
	PTC700FPL   []float64 `json:"ptc_700fpl"`
	FPL         float64   `json:"fpl"`
	SLCSP       float64   `json:"slcsp"`
	Medicaid    []float64 `json:"medicaid,omitempty"`
	CHIP        []float64 `json:"chip,omitempty"`
}

// Curve возвращает кривую кредита для сценария.
func (r *CalculationResult) Curve(s Scenario) []float64 {
	switch s {
	case ScenarioBaseline:
		return r.PTCBaseline
	case ScenarioIRA:
		return r.PTCIRA
	case Scenario700FPL:
		return r.PTC700FPL
	}
	return nil
}

// Validate проверяет, что сетка не пуста, а все непустые кривые ей параллельны.
func (r *CalculationResult) Validate() error {
	if r == nil {
		return errors.New("result is missing")
	}
	if len(r.Income) == 0 {
		return errors.New("result has an empty income grid")
	}
	curves := map[string][]float64{
		"ptc_baseline": r.PTCBaseline,
		"ptc_ira":      r.PTCIRA,
		"ptc_700fpl":   r.PTC700FPL,
		"medicaid":     r.Medicaid,
		"chip":         r.CHIP,
	}
	for name, c := range curves {
		if len(c) != 0 && len(c) != len(r.Income) {
			return fmt.Errorf("curve %s has %d points, income grid has %d", name, len(c), len(r.Income))
		}
	}
	return nil
}

// Calculation — успешно завершённый расчёт, который видят наблюдатели.
// ID уникален для каждого успешного расчёта, даже если результат взят из кэша.
type Calculation struct {
	ID          string
	Key         CacheKey
	Request     CalculationRequest
	Result      *CalculationResult
	Source      Source
	CompletedAt time.Time
}

// FromCache сообщает, что результат отдан из кэша без обращения к сети.
func (c *Calculation) FromCache() bool {
	return c.Source == SourceCache
}

// Source — откуда получен результат.
type Source string

const (
	SourceCache    Source = "cache"
	SourceStream   Source = "stream"
	SourceFallback Source = "fallback"
)

// CalculationRecord — запись о расчёте для истории, брокера и аналитики.
type CalculationRecord struct {
	ID            string    `json:"id"`
	Key           CacheKey  `json:"key"`
	State         string    `json:"state"`
	County        string    `json:"county"`
	HouseholdSize int       `json:"household_size"`
	FPL           float64   `json:"fpl"`
	SLCSP         float64   `json:"slcsp"`
	Source        Source    `json:"source"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Record строит запись для истории и аналитики.
func (c *Calculation) Record() CalculationRecord {
	rec := CalculationRecord{
		ID:            c.ID,
		Key:           c.Key,
		State:         c.Request.State,
		County:        c.Request.County,
		HouseholdSize: c.Request.HouseholdSize(),
		Source:        c.Source,
		CompletedAt:   c.CompletedAt,
	}
	if c.Result != nil {
		rec.FPL = c.Result.FPL
		rec.SLCSP = c.Result.SLCSP
	}
	return rec
}
