package resultcache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/infrastructure/memstore"
	"github.com/PolicyEngine/ACA-Calc/internal/mocks"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// clock — управляемые часы; время кратно миллисекунде, чтобы не терять точность при записи.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.UnixMilli(1_700_000_000_000)} }

func sampleResult() *domain.CalculationResult {
	return &domain.CalculationResult{
		Income:      []float64{0, 25000, 50000},
		PTCBaseline: []float64{6000, 4000, 0},
		PTCIRA:      []float64{6500, 4800, 1200},
		PTC700FPL:   []float64{6500, 4800, 1500},
		FPL:         15650,
		SLCSP:       7200,
	}
}

const key = domain.CacheKey("abc123")

func TestCache_PutThenGet(t *testing.T) {
	clk := newClock()
	store := memstore.New(0)
	c := New(store, newTestLogger(), WithClock(clk.now))
	ctx := context.Background()

	assert.Equal(t, domain.CacheMiss, c.Get(ctx, key).Status)

	require.Equal(t, domain.CacheStored, c.Put(ctx, key, sampleResult()))

	got := c.Get(ctx, key)
	require.True(t, got.Hit())
	assert.Equal(t, sampleResult(), got.Result)
	assert.True(t, clk.t.Equal(got.StoredAt))

	raw, found, err := store.Get(ctx, KeyPrefix+string(key))
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"data":{"income":[0,25000,50000],"ptc_baseline":[6000,4000,0],"ptc_ira":[6500,4800,1200],"ptc_700fpl":[6500,4800,1500],"fpl":15650,"slcsp":7200},"timestamp":1700000000000}`, raw)
}

func TestCache_TTLBoundary(t *testing.T) {
	tests := []struct {
		name   string
		after  time.Duration
		status domain.CacheStatus
	}{
		{"за миллисекунду до истечения", DefaultTTL - time.Millisecond, domain.CacheHit},
		{"ровно TTL", DefaultTTL, domain.CacheHit},
		{"через миллисекунду после TTL", DefaultTTL + time.Millisecond, domain.CacheExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newClock()
			store := memstore.New(0)
			c := New(store, newTestLogger(), WithClock(clk.now))
			ctx := context.Background()

			require.Equal(t, domain.CacheStored, c.Put(ctx, key, sampleResult()))
			clk.advance(tt.after)

			assert.Equal(t, tt.status, c.Get(ctx, key).Status)
			if tt.status == domain.CacheExpired {
				// просроченная запись удалена лениво
				assert.Equal(t, 0, store.Len())
				assert.Equal(t, domain.CacheMiss, c.Get(ctx, key).Status)
			}
		})
	}
}

func TestCache_CustomTTL(t *testing.T) {
	clk := newClock()
	c := New(memstore.New(0), newTestLogger(), WithClock(clk.now), WithTTL(time.Minute))
	ctx := context.Background()

	c.Put(ctx, key, sampleResult())
	clk.advance(time.Minute + time.Millisecond)
	assert.Equal(t, domain.CacheExpired, c.Get(ctx, key).Status)
}

func TestCache_CorruptEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"не JSON", "{not json"},
		{"нет данных", `{"timestamp":1700000000000}`},
		{"нет метки времени", `{"data":{"income":[1],"ptc_baseline":[1]}}`},
		{"кривые разной длины", `{"data":{"income":[1,2],"ptc_baseline":[1]},"timestamp":1700000000000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New(0)
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, KeyPrefix+string(key), tt.raw))

			c := New(store, newTestLogger(), WithClock(newClock().now))
			assert.Equal(t, domain.CacheCorrupt, c.Get(ctx, key).Status)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestCache_StoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIKeyValueStore(ctrl)
	c := New(store, newTestLogger())
	ctx := context.Background()

	store.EXPECT().Get(gomock.Any(), KeyPrefix+string(key)).Return("", false, errors.New("storage disabled"))
	assert.Equal(t, domain.CacheUnavailable, c.Get(ctx, key).Status)

	store.EXPECT().Set(gomock.Any(), KeyPrefix+string(key), gomock.Any()).Return(errors.New("quota exceeded"))
	assert.Equal(t, domain.CacheStoreFailed, c.Put(ctx, key, sampleResult()))
}

func TestCache_CapacityExceeded(t *testing.T) {
	c := New(memstore.New(64), newTestLogger())
	assert.Equal(t, domain.CacheStoreFailed, c.Put(context.Background(), key, sampleResult()))
}

func TestCache_PutNilResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// хранилище не трогаем вовсе
	c := New(mocks.NewMockIKeyValueStore(ctrl), newTestLogger())
	assert.Equal(t, domain.CacheEncodeFailed, c.Put(context.Background(), key, nil))
}

func TestCache_OverwriteRefreshesTimestamp(t *testing.T) {
	clk := newClock()
	c := New(memstore.New(0), newTestLogger(), WithClock(clk.now))
	ctx := context.Background()

	c.Put(ctx, key, sampleResult())
	clk.advance(DefaultTTL)
	c.Put(ctx, key, sampleResult())
	clk.advance(time.Hour)

	assert.True(t, c.Get(ctx, key).Hit())
}
