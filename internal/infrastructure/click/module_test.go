package click

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Options(t *testing.T) {
	cfg := &Config{Host: "ch", Port: "9440", Database: "analytics", Username: "aca", Password: "pw", DialTimeout: 2 * time.Second, Compress: true}
	opts := cfg.options()

	assert.Equal(t, []string{"ch:9440"}, opts.Addr)
	assert.Equal(t, clickhouse.Auth{Database: "analytics", Username: "aca", Password: "pw"}, opts.Auth)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	require.NotNil(t, opts.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)

	cfg.Compress = false
	assert.Nil(t, cfg.options().Compression)
}
