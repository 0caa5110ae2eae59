package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"

	"poolstats/internal/domain"
	"poolstats/internal/metrics"
	"poolstats/internal/store"
)

// Deltas is a sparse increment set for one day bucket. Nil fields leave
// the corresponding bucket field unchanged.
type Deltas struct {
	SwapTxCount       *int64
	SwapVolumeInUsd   *decimal.Decimal
	SwapVolumeInUnits *decimal.Decimal
	LiquidityInUnits  *decimal.Decimal
	LiquidityInUsd    *decimal.Decimal
	TxCount           *int64
}

// Accumulator folds events into per (token, day) statistics records.
// Past days are never revisited; a fresh bucket carries yesterday's
// closing liquidity forward so idle days stay correct.
type Accumulator struct {
	log   logger.Logger
	store store.EntityStore
}

func NewAccumulator(log logger.Logger, st store.EntityStore) (*Accumulator, error) {
	if st == nil {
		return nil, errors.New("entity store is required to the accumulator")
	}
	return &Accumulator{log: log, store: st}, nil
}

// GetOrCreateDayBucket returns the bucket for (token, day of timestamp),
// creating and persisting it on first touch. Liquidity fields seed from
// the previous day's bucket when one exists, else zero.
func (a *Accumulator) GetOrCreateDayBucket(ctx context.Context, token *domain.Token, timestamp int64) (*domain.DailyTokenStatistics, error) {
	if token == nil {
		return nil, errors.New("token is required to create a day bucket")
	}

	dayID := domain.DayID(timestamp)
	bucketID := domain.DayBucketID(token.ID, dayID)

	bucket, err := a.store.LoadDailyTokenStats(ctx, bucketID)
	if err == nil {
		return bucket, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load day bucket %s: %w", bucketID, err)
	}

	bucket = &domain.DailyTokenStatistics{
		ID:                bucketID,
		Token:             token.ID,
		Date:              timestamp,
		DayID:             dayID,
		SwapVolumeInUsd:   decimal.Zero,
		SwapVolumeInUnits: decimal.Zero,
		SwapTxCount:       0,
		LiquidityInUnits:  decimal.Zero,
		LiquidityInUsd:    decimal.Zero,
		TxCount:           0,
	}

	yesterdayID := domain.DayBucketID(token.ID, dayID-1)
	yesterday, err := a.store.LoadDailyTokenStats(ctx, yesterdayID)
	if err == nil {
		bucket.LiquidityInUnits = yesterday.LiquidityInUnits
		bucket.LiquidityInUsd = yesterday.LiquidityInUsd
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load previous day bucket %s: %w", yesterdayID, err)
	}

	// persist before increments so the bucket is visible to lookups
	// within the same processing pass
	if err = a.store.SaveDailyTokenStats(ctx, bucket); err != nil {
		return nil, fmt.Errorf("save day bucket %s: %w", bucketID, err)
	}
	metrics.DayBucketsCreated.Inc()

	a.log.Debugf("Created day bucket %s (seeded liquidity units=%s usd=%s)",
		bucketID, bucket.LiquidityInUnits, bucket.LiquidityInUsd)

	return bucket, nil
}

// ApplyIncrements adds each present delta to its field, persists the
// bucket and returns the updated value. The input bucket is not mutated.
func (a *Accumulator) ApplyIncrements(ctx context.Context, bucket *domain.DailyTokenStatistics, d Deltas) (*domain.DailyTokenStatistics, error) {
	if bucket == nil {
		return nil, errors.New("bucket is required to apply increments")
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
	if d.LiquidityInUnits != nil {
		updated.LiquidityInUnits = updated.LiquidityInUnits.Add(*d.LiquidityInUnits)
	}
	if d.LiquidityInUsd != nil {
		updated.LiquidityInUsd = updated.LiquidityInUsd.Add(*d.LiquidityInUsd)
	}
	if d.TxCount != nil {
		updated.TxCount += *d.TxCount
	}

	if err := a.store.SaveDailyTokenStats(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save day bucket %s: %w", updated.ID, err)
	}

	return &updated, nil
}

// UpdateDailyTokenStatistics is the one-shot form: get-or-create the
// bucket for the event's day, then apply the increments.
func (a *Accumulator) UpdateDailyTokenStatistics(ctx context.Context, token *domain.Token, timestamp int64, d Deltas) (*domain.DailyTokenStatistics, error) {
	bucket, err := a.GetOrCreateDayBucket(ctx, token, timestamp)
	if err != nil {
		return nil, err
	}
	return a.ApplyIncrements(ctx, bucket, d)
}
