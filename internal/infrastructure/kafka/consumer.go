package kafka

import (
	"context"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// reader — часть kafka.Reader, которой пользуется консьюмер.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer — обёртка над kafka.Reader, декодирует сообщения в domain.CalculationRecord и вызывает use case.
type Consumer struct {
	r   reader
	uc  ports.ICalculatorUseCase
	log *slog.Logger
}

// NewConsumer создаёт консьюмера по конфигу, use case и логгеру. После использования вызови Close().
func NewConsumer(cfg *Config, uc ports.ICalculatorUseCase, log *slog.Logger) *Consumer {
	return &Consumer{r: kafka.NewReader(cfg.readerConfig()), uc: uc, log: log}
}

// Run в цикле читает сообщения, декодирует JSON в domain.CalculationRecord, вызывает uc.HandleCalculationRecord
// и коммитит при успехе. Битые сообщения коммитятся и пропускаются.
// Выход по отмене ctx или при ошибке чтения.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("kafka consumer stopped", "error", err)
			return err
		}

		if ct := header(msg, "content-type"); ct != "" && ct != recordContentType {
			c.log.Warn("kafka foreign message, skip", "content_type", ct, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			_ = c.r.CommitMessages(ctx, msg)
			continue
		}

		var rec domain.CalculationRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil || rec.ID == "" {
			c.log.Warn("kafka bad message, skip", "error", err, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			_ = c.r.CommitMessages(ctx, msg)
			continue
		}

		if err := c.uc.HandleCalculationRecord(ctx, rec); err != nil {
			c.log.Warn("kafka handle error, will redeliver", "error", err, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			continue
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("kafka consumer stopped (commit)", "error", err)
			return err
		}
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close закрывает консьюмера.
func (c *Consumer) Close() error {
	return c.r.Close()
}
