package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// recordContentType — заголовок, по которому консьюмеры отличают JSON-записи о расчётах.
const recordContentType = "application/vnd.acacalc.calculation+json"

var _ ports.IProducer = (*Producer)(nil)

// Producer публикует записи о расчётах в топик.
type Producer struct {
	w *kafka.Writer
}

// NewProducer создаёт продюсера. Соединение с брокером устанавливается при первой отправке.
func NewProducer(cfg *Config) *Producer {
	return &Producer{w: cfg.newWriter()}
}

// Send публикует одну запись. key — идентификатор расчёта.
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: []kafka.Header{{Key: "content-type", Value: []byte(recordContentType)}},
	})
}

func (p *Producer) Close() error {
	return p.w.Close()
}
