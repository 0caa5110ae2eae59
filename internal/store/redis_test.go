package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolstats/internal/domain"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	s, err := NewRedisStore(rdb, "test:")
	require.NoError(t, err)

	return mr, s
}

func TestNewRedisStore_NilClient(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(nil, "")
	assert.Error(t, err)
}

func TestRedisStore_RoundTripToken(t *testing.T) {
	t.Parallel()

	_, s := setupRedisStore(t)
	ctx := context.Background()

	token := &domain.Token{
		ID:             "0xAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaa",
		Symbol:         "WETH",
		Name:           "Wrapped Ether",
		Decimals:       18,
		TotalLiquidity: decimal.RequireFromString("123.456"),
		TxCount:        9,
		SwapTxCount:    4,
	}
	require.NoError(t, s.SaveToken(ctx, token))

	got, err := s.LoadToken(ctx, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "WETH", got.Symbol)
	assert.True(t, got.TotalLiquidity.Equal(decimal.RequireFromString("123.456")))
	assert.Equal(t, int64(9), got.TxCount)
	assert.Equal(t, int64(4), got.SwapTxCount)
}

func TestRedisStore_RoundTripDailyStats(t *testing.T) {
	t.Parallel()

	_, s := setupRedisStore(t)
	ctx := context.Background()

	st := &domain.DailyTokenStatistics{
		ID:                domain.DayBucketID("0xaa", 19600),
		Token:             "0xaa",
		DayID:             19600,
		SwapVolumeInUsd:   decimal.RequireFromString("1500.25"),
		SwapVolumeInUnits: decimal.RequireFromString("0.75"),
		SwapTxCount:       5,
		LiquidityInUnits:  decimal.RequireFromString("42"),
		LiquidityInUsd:    decimal.RequireFromString("84000"),
		TxCount:           7,
	}
	require.NoError(t, s.SaveDailyTokenStats(ctx, st))

	got, err := s.LoadDailyTokenStats(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.SwapVolumeInUsd.Equal(st.SwapVolumeInUsd))
	assert.True(t, got.LiquidityInUsd.Equal(st.LiquidityInUsd))
	assert.Equal(t, int64(7), got.TxCount)
}

func TestRedisStore_NotFound(t *testing.T) {
	t.Parallel()

	_, s := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.LoadToken(ctx, "0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadPoolToken(ctx, "0xpool-0xtoken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	t.Parallel()

	mr, s := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, &domain.Token{ID: "0xaa"}))

	assert.True(t, mr.Exists("test:token:0xaa"))
}

func TestRedisStore_Health(t *testing.T) {
	t.Parallel()

	mr, s := setupRedisStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Health(ctx))

	mr.Close()
	assert.Error(t, s.Health(ctx))
}
