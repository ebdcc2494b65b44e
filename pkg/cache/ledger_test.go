package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedisCache(context.Background(), NewRedisCacheConfig{Address: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

var _ Cache = (*RedisCache)(nil)

func TestNewRedisCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(context.Background(), NewRedisCacheConfig{Address: addr}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRedisCacheGetMissing(t *testing.T) {
	c, _ := newTestCache(t)

	val, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestEventLedger(t *testing.T) {
	c, mr := newTestCache(t)
	ledger := NewEventLedger(c, time.Hour)
	ledger.now = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	seen, err := ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, ledger.MarkProcessed(ctx, "evt_1"))

	seen, err = ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	got, err := mr.Get("stripe:event:evt_1")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18T09:30:00Z", got)
	assert.Equal(t, time.Hour, mr.TTL("stripe:event:evt_1"))

	mr.FastForward(time.Hour + time.Second)
	seen, err = ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestEventLedgerDefaultTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ledger := NewEventLedger(c, 0)

	require.NoError(t, ledger.MarkProcessed(context.Background(), "evt_2"))
	assert.Equal(t, DefaultEventTTL, mr.TTL("stripe:event:evt_2"))
}
