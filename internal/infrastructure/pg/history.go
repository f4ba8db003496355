package pg

import (
	"context"
	"log/slog"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.ICalculationRepository = (*CalculationRepo)(nil)

// CalculationRepo реализует ports.ICalculationRepository для PostgreSQL.
type CalculationRepo struct {
	db  *DB
	log *slog.Logger
}

// NewCalculationRepo возвращает репозиторий истории расчётов.
func NewCalculationRepo(db *DB, log *slog.Logger) *CalculationRepo {
	return &CalculationRepo{db: db, log: log}
}

// SaveCalculation сохраняет запись. Повторная доставка той же записи ничего не меняет.
func (r *CalculationRepo) SaveCalculation(ctx context.Context, rec domain.CalculationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calculations (id, cache_key, state, county, household_size, fpl, slcsp, source, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, string(rec.Key), rec.State, rec.County, rec.HouseholdSize, rec.FPL, rec.SLCSP, string(rec.Source), rec.CompletedAt)
	if err != nil {
		r.log.Debug("SaveCalculation failed", "error", err)
		return err
	}
	return nil
}

// GetHistory возвращает не больше limit последних расчётов (последние сначала).
func (r *CalculationRepo) GetHistory(ctx context.Context, limit int) ([]domain.CalculationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cache_key, state, county, household_size, fpl, slcsp, source, completed_at
		 FROM calculations ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		r.log.Debug("GetHistory failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	list := make([]domain.CalculationRecord, 0)
	for rows.Next() {
		var (
			rec         domain.CalculationRecord
			key, source string
		)
		err := rows.Scan(&rec.ID, &key, &rec.State, &rec.County, &rec.HouseholdSize, &rec.FPL, &rec.SLCSP, &source, &rec.CompletedAt)
		if err != nil {
			return nil, err
		}
		rec.Key = domain.CacheKey(key)
		rec.Source = domain.Source(source)
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Ping проверяет доступность БД (readiness).
func (r *CalculationRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
