package pg

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Host: "db.internal", Port: "5433", User: "aca calc", Password: "p@ss/word",
		DBName: "acacalc", SSLMode: "require", ConnectTimeout: 3 * time.Second,
	}
	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/acacalc", u.Path)
	assert.Equal(t, "aca calc", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pass)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "3", u.Query().Get("connect_timeout"))
}

func TestConfig_DSN_NoTimeout(t *testing.T) {
	u, err := url.Parse((&Config{Host: "localhost", Port: "5432", DBName: "x", SSLMode: "disable"}).DSN())
	require.NoError(t, err)
	assert.False(t, u.Query().Has("connect_timeout"))
}
