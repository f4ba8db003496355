package click

import (
	"context"
	"fmt"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

const calculationsTable = "calculations_analytics"

var _ ports.ICalculationAnalytics = (*CalculationWriter)(nil)

// CalculationWriter записывает расчёты в ClickHouse в виде, удобном для аналитики (по штатам, источникам, времени).
type CalculationWriter struct {
	db *Client
}

// NewCalculationWriter создаёт писатель расчётов для аналитики.
func NewCalculationWriter(db *Client) *CalculationWriter {
	return &CalculationWriter{db: db}
}

func (w *CalculationWriter) table() string {
	return fmt.Sprintf("%s.%s", w.db.database, calculationsTable)
}

// EnsureTable создаёт таблицу, если её ещё нет. Вызови один раз при старте приложения.
func (w *CalculationWriter) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id String,
			cache_key FixedString(64),
			state LowCardinality(String),
			county String,
			household_size UInt8,
			fpl Float64,
			slcsp Float64,
			source LowCardinality(String),
			completed_at DateTime64(3)
		) ENGINE = ReplacingMergeTree()
		ORDER BY (state, completed_at, id)
		PARTITION BY toYYYYMM(completed_at)`,
		w.table(),
	)
	_, err := w.db.DB().ExecContext(ctx, query)
	return err
}

// WriteCalculation реализует ports.ICalculationAnalytics: пишет один расчёт.
func (w *CalculationWriter) WriteCalculation(ctx context.Context, rec domain.CalculationRecord) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (id, cache_key, state, county, household_size, fpl, slcsp, source, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		w.table(),
	)
	_, err := w.db.DB().ExecContext(ctx, query,
		rec.ID, string(rec.Key), rec.State, rec.County, uint8(rec.HouseholdSize), rec.FPL, rec.SLCSP, string(rec.Source), rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}
	return nil
}

// StateCount — число расчётов по штату.
type StateCount struct {
	State string
	Count uint64
}

// CountByState возвращает число расчётов по штатам, по убыванию.
func (w *CalculationWriter) CountByState(ctx context.Context) ([]StateCount, error) {
	query := fmt.Sprintf("SELECT state, count() AS n FROM %s FINAL GROUP BY state ORDER BY n DESC, state", w.table())
	rows, err := w.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count by state: %w", err)
	}
	defer rows.Close()
	var out []StateCount
	for rows.Next() {
		var sc StateCount
		if err := rows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
