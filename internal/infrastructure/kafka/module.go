package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultBroker = "localhost:9092"

// Config — топик записей о расчётах. Переменные: ACACALC_KAFKA_*.
// Продюсер включается вместе с Enabled, консьюмер — только если включена ещё и аналитика.
type Config struct {
	Enabled bool   `envconfig:"ENABLED" default:"false"`
	Brokers string `envconfig:"BROKERS" default:"localhost:9092"` // через запятую
	Topic   string `envconfig:"TOPIC" default:"acacalc.calculations"`
	GroupID string `envconfig:"GROUP_ID" default:"acacalc-analytics"`

	// BatchTimeout — сколько продюсер копит записи перед отправкой. Запись идёт в фоне после расчёта.
	BatchTimeout time.Duration `envconfig:"BATCH_TIMEOUT" default:"200ms"`
	// FromStart — новая группа читает топик с начала (иначе только новые записи).
	FromStart bool `envconfig:"FROM_START" default:"true"`
}

func (c *Config) brokers() []string {
	if c == nil {
		return []string{defaultBroker}
	}
	var out []string
	for _, p := range strings.Split(c.Brokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{defaultBroker}
	}
	return out
}

// newWriter — писатель с хеш-балансировкой по ключу: все записи одного расчёта попадают в одну партицию.
func (c *Config) newWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.brokers()...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           c.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func (c *Config) readerConfig() kafka.ReaderConfig {
	start := kafka.LastOffset
	if c.FromStart {
		start = kafka.FirstOffset
	}
	return kafka.ReaderConfig{
		Brokers:     c.brokers(),
		Topic:       c.Topic,
		GroupID:     c.GroupID,
		StartOffset: start,
	}
}
