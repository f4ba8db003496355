package calcservice

import (
	"strings"
	"time"
)

const (
	defaultStreamPath    = "/api/calculate-stream"
	defaultCalculatePath = "/api/calculate"
	defaultChunkSize     = 4096
)

// Config — адрес и пути сервиса расчёта. Таймауты 0 — без ограничения.
type Config struct {
	BaseURL         string        `envconfig:"BASE_URL" default:"http://localhost:8000"`
	StreamPath      string        `envconfig:"STREAM_PATH" default:"/api/calculate-stream"`
	CalculatePath   string        `envconfig:"CALCULATE_PATH" default:"/api/calculate"`
	StreamTimeout   time.Duration `envconfig:"STREAM_TIMEOUT" default:"0s"`
	FallbackTimeout time.Duration `envconfig:"FALLBACK_TIMEOUT" default:"0s"`
	ChunkSize       int           `envconfig:"CHUNK_SIZE" default:"4096"`
}

func (c Config) streamURL() string {
	return joinURL(c.BaseURL, c.StreamPath, defaultStreamPath)
}

func (c Config) calculateURL() string {
	return joinURL(c.BaseURL, c.CalculatePath, defaultCalculatePath)
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

func joinURL(base, path, def string) string {
	if path == "" {
		path = def
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
