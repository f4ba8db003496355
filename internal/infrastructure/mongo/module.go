package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Config — история расчётов в MongoDB. Переменные: ACACALC_MONGO_*.
type Config struct {
	URI            string        `envconfig:"URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"DATABASE" default:"acacalc"`
	Collection     string        `envconfig:"COLLECTION" default:"calculations"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
}

// Client — подключение и коллекция расчётов.
type Client struct {
	conn         *mongo.Client
	calculations *mongo.Collection
}

// New подключается к MongoDB, проверяет соединение и создаёт индекс по времени расчёта.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetAppName("acacalc").
		SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	c := &Client{conn: conn, calculations: conn.Database(cfg.Database).Collection(cfg.Collection)}

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.Ping(initCtx, nil); err != nil {
		_ = conn.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := c.ensureIndexes(initCtx); err != nil {
		_ = conn.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	_, err := c.calculations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "completed_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

// Calculations — коллекция истории расчётов.
func (c *Client) Calculations() *mongo.Collection {
	return c.calculations
}

// Ping — для readiness.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.conn.Disconnect(ctx)
}
