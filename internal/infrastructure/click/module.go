package click

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config — аналитика расчётов в ClickHouse. Переменные: ACACALC_CLICKHOUSE_*.
type Config struct {
	Enabled     bool          `envconfig:"ENABLED" default:"false"`
	Host        string        `envconfig:"HOST" default:"localhost"`
	Port        string        `envconfig:"PORT" default:"9000"`
	Database    string        `envconfig:"DATABASE" default:"default"`
	Username    string        `envconfig:"LOGIN" default:"default"`
	Password    string        `envconfig:"PASSWORD" default:""`
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	// Compress включает LZ4 на нативном протоколе.
	Compress bool `envconfig:"COMPRESS" default:"true"`
}

func (c *Config) options() *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(c.Host, c.Port)},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		DialTimeout: c.DialTimeout,
	}
	if c.Compress {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	return opts
}

// Client — соединение с базой аналитики.
type Client struct {
	db       *sql.DB
	database string
}

// New подключается к ClickHouse и проверяет соединение.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	opts := cfg.options()
	db := clickhouse.OpenDB(opts)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", opts.Addr[0], err)
	}
	return &Client{db: db, database: cfg.Database}, nil
}

// DB — пул для запросов писателя.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Ping — для readiness.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
