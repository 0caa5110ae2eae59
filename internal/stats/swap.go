package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"poolstats/internal/domain"
	"poolstats/internal/metrics"
	"poolstats/internal/store"
)

// SwapDeltas is the swap-only increment set. Swap buckets track flow
// metrics exclusively, so there are no liquidity fields to carry over.
type SwapDeltas struct {
	SwapTxCount       *int64
	SwapVolumeInUsd   *decimal.Decimal
	SwapVolumeInUnits *decimal.Decimal
}

// GetOrCreateSwapBucket returns the swap-only bucket for (token, day),
// creating and persisting a zero-seeded one on first touch. Unlike the
// general day bucket nothing is copied from the previous day: volume and
// counts restart at zero each day.
func (a *Accumulator) GetOrCreateSwapBucket(ctx context.Context, token *domain.Token, timestamp int64) (*domain.DailySwapStatistics, error) {
	if token == nil {
		return nil, errors.New("token is required to create a swap bucket")
	}

	dayID := domain.DayID(timestamp)
	bucketID := domain.DayBucketID(token.ID, dayID)

	bucket, err := a.store.LoadDailySwapStats(ctx, bucketID)
	if err == nil {
		return bucket, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load swap bucket %s: %w", bucketID, err)
	}

	bucket = &domain.DailySwapStatistics{
		ID:                bucketID,
		Token:             token.ID,
		Date:              timestamp,
		DayID:             dayID,
		SwapVolumeInUsd:   decimal.Zero,
		SwapVolumeInUnits: decimal.Zero,
		SwapTxCount:       0,
	}

	if err = a.store.SaveDailySwapStats(ctx, bucket); err != nil {
		return nil, fmt.Errorf("save swap bucket %s: %w", bucketID, err)
	}
	metrics.DayBucketsCreated.Inc()

	a.log.Debugf("Created swap bucket %s", bucketID)
	return bucket, nil
}

// ApplySwapIncrements adds each present delta, persists and returns the
// updated bucket. Absent deltas never change their field.
func (a *Accumulator) ApplySwapIncrements(ctx context.Context, bucket *domain.DailySwapStatistics, d SwapDeltas) (*domain.DailySwapStatistics, error) {
	if bucket == nil {
		return nil, errors.New("bucket is required to apply swap increments")
	}

	updated := *bucket

	if d.SwapTxCount != nil {
		updated.SwapTxCount += *d.SwapTxCount
	}
	if d.SwapVolumeInUsd != nil {
		updated.SwapVolumeInUsd = updated.SwapVolumeInUsd.Add(*d.SwapVolumeInUsd)
	}
	if d.SwapVolumeInUnits != nil {
		updated.SwapVolumeInUnits = updated.SwapVolumeInUnits.Add(*d.SwapVolumeInUnits)
	}

	if err := a.store.SaveDailySwapStats(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save swap bucket %s: %w", updated.ID, err)
	}

	return &updated, nil
}

// UpdateDailySwapStatistics is the one-shot form for swap events.
func (a *Accumulator) UpdateDailySwapStatistics(ctx context.Context, token *domain.Token, timestamp int64, d SwapDeltas) (*domain.DailySwapStatistics, error) {
	bucket, err := a.GetOrCreateSwapBucket(ctx, token, timestamp)
	if err != nil {
		return nil, err
	}
	return a.ApplySwapIncrements(ctx, bucket, d)
}
