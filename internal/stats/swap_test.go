package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolstats/internal/domain"
)

func TestGetOrCreateSwapBucket_ZeroSeeded(t *testing.T) {
	t.Parallel()

	acc, st := newTestAccumulator(t)
	ctx := context.Background()
	token := testToken()

	ts := int64(1_700_000_000)
	dayID := domain.DayID(ts)

	// a previous-day swap bucket must NOT carry into today
	yesterday := &domain.DailySwapStatistics{
		ID:                domain.DayBucketID(token.ID, dayID-1),
		Token:             token.ID,
		DayID:             dayID - 1,
		SwapVolumeInUsd:   dec("9999"),
		SwapVolumeInUnits: dec("77"),
		SwapTxCount:       13,
	}
	require.NoError(t, st.SaveDailySwapStats(ctx, yesterday))

	bucket, err := acc.GetOrCreateSwapBucket(ctx, token, ts)
	require.NoError(t, err)

	assert.Equal(t, dayID, bucket.DayID)
	assert.True(t, bucket.SwapVolumeInUsd.IsZero())
	assert.True(t, bucket.SwapVolumeInUnits.IsZero())
	assert.Zero(t, bucket.SwapTxCount)
}

func TestUpdateDailySwapStatistics_Accumulates(t *testing.T) {
	t.Parallel()

	acc, _ := newTestAccumulator(t)
	ctx := context.Background()
	token := testToken()

	ts := int64(1_700_000_000)

	_, err := acc.UpdateDailySwapStatistics(ctx, token, ts, SwapDeltas{
		SwapTxCount:       i64(1),
		SwapVolumeInUsd:   decP("300"),
		SwapVolumeInUnits: decP("1.5"),
	})
	require.NoError(t, err)

	bucket, err := acc.UpdateDailySwapStatistics(ctx, token, ts+120, SwapDeltas{
		SwapTxCount:       i64(1),
		SwapVolumeInUsd:   decP("200"),
		SwapVolumeInUnits: decP("1"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), bucket.SwapTxCount)
	assert.True(t, bucket.SwapVolumeInUsd.Equal(dec("500")))
	assert.True(t, bucket.SwapVolumeInUnits.Equal(dec("2.5")))
}

func TestApplySwapIncrements_AbsentDeltasUnchanged(t *testing.T) {
	t.Parallel()

	acc, _ := newTestAccumulator(t)
	ctx := context.Background()
	token := testToken()

	ts := int64(1_700_000_000)

	bucket, err := acc.UpdateDailySwapStatistics(ctx, token, ts, SwapDeltas{
		SwapTxCount:     i64(4),
		SwapVolumeInUsd: decP("1000"),
	})
	require.NoError(t, err)

	bucket, err = acc.ApplySwapIncrements(ctx, bucket, SwapDeltas{
		SwapVolumeInUnits: decP("3"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), bucket.SwapTxCount)
	assert.True(t, bucket.SwapVolumeInUsd.Equal(dec("1000")))
	assert.True(t, bucket.SwapVolumeInUnits.Equal(dec("3")))
}
