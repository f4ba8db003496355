package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.ICalculationRepository = (*CalculationRepo)(nil)

// calculationDoc — документ в коллекции calculations. _id — идентификатор расчёта.
type calculationDoc struct {
	ID            string    `bson:"_id"`
	Key           string    `bson:"cache_key"`
	State         string    `bson:"state"`
	County        string    `bson:"county"`
	HouseholdSize int       `bson:"household_size"`
	FPL           float64   `bson:"fpl"`
	SLCSP         float64   `bson:"slcsp"`
	Source        string    `bson:"source"`
	CompletedAt   time.Time `bson:"completed_at"`
}

// CalculationRepo реализует ports.ICalculationRepository для MongoDB.
type CalculationRepo struct {
	client *Client
	log    *slog.Logger
}

// NewCalculationRepo возвращает репозиторий истории расчётов.
func NewCalculationRepo(client *Client, log *slog.Logger) *CalculationRepo {
	return &CalculationRepo{client: client, log: log}
}

// SaveCalculation сохраняет запись (upsert по _id: повторная доставка не дублирует документ).
func (r *CalculationRepo) SaveCalculation(ctx context.Context, rec domain.CalculationRecord) error {
	doc := calculationDoc{
		ID:            rec.ID,
		Key:           string(rec.Key),
		State:         rec.State,
		County:        rec.County,
		HouseholdSize: rec.HouseholdSize,
		FPL:           rec.FPL,
		SLCSP:         rec.SLCSP,
		Source:        string(rec.Source),
		CompletedAt:   rec.CompletedAt,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.client.Calculations().ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, opts)
	if err != nil {
		r.log.Debug("SaveCalculation failed", "error", err)
		return err
	}
	return nil
}

// GetHistory возвращает не больше limit последних расчётов (последние сначала).
func (r *CalculationRepo) GetHistory(ctx context.Context, limit int) ([]domain.CalculationRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.client.Calculations().Find(ctx, bson.M{}, opts)
	if err != nil {
		r.log.Debug("GetHistory failed", "error", err)
		return nil, err
	}
	defer cursor.Close(ctx)
	var docs []calculationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	list := make([]domain.CalculationRecord, 0, len(docs))
	for _, d := range docs {
		list = append(list, domain.CalculationRecord{
			ID:            d.ID,
			Key:           domain.CacheKey(d.Key),
			State:         d.State,
			County:        d.County,
			HouseholdSize: d.HouseholdSize,
			FPL:           d.FPL,
			SLCSP:         d.SLCSP,
			Source:        domain.Source(d.Source),
			CompletedAt:   d.CompletedAt,
		})
	}
	return list, nil
}

// Ping проверяет доступность БД.
func (r *CalculationRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
