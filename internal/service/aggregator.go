package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/nevasik7/alerting/logger"

	"poolstats/internal/dedupe"
	"poolstats/internal/domain"
	"poolstats/internal/metrics"
	"poolstats/internal/price"
	"poolstats/internal/pubsub"
	"poolstats/internal/registry"
	"poolstats/internal/stats"
	"poolstats/internal/store"
	"poolstats/internal/stores/clickhouse"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrPoolNotFound  = errors.New("pool not found in store")
)

// StatsArchiver receives archived bucket snapshots for long-term storage.
type StatsArchiver interface {
	Enqueue(row clickhouse.DailyStatsRow) error
	Health(ctx context.Context) error
}

// AggregatorService folds decoded pool events into the derived state:
// tokens, day buckets, reference prices. The only orchestration point:
// dedupe → registry → statistics → price → archive → broadcast.
// Each event is processed to completion before the next one; re-delivery
// of the same event converges because every step is an idempotent upsert.
type AggregatorService struct {
	log         logger.Logger
	store       store.EntityStore
	registry    *registry.Registry
	accumulator *stats.Accumulator
	resolver    *price.Resolver
	broadcaster pubsub.Broadcaster
	archiver    StatsArchiver
	deduper     dedupe.Deduplicator
}

func NewAggregatorService(
	log logger.Logger,
	st store.EntityStore,
	reg *registry.Registry,
	acc *stats.Accumulator,
	res *price.Resolver,
	broadcaster pubsub.Broadcaster,
	archiver StatsArchiver,
	deduper dedupe.Deduplicator,
) *AggregatorService {
	return &AggregatorService{
		log:         log,
		store:       st,
		registry:    reg,
		accumulator: acc,
		resolver:    res,
		broadcaster: broadcaster,
		archiver:    archiver,
		deduper:     deduper,
	}
}

func (a *AggregatorService) ProcessPoolEvent(ctx context.Context, ev *domain.PoolEvent) error {
	if ev == nil {
		return errors.New("event is nil")
	}

	eventID := ev.EventID
	if eventID == "" {
		eventID = domain.MakeEventID(ev.ChainID, ev.TxHash, ev.LogIndex)
	}

	isDup, err := a.deduper.IsDuplicate(ctx, eventID)
	if err != nil {
		return fmt.Errorf("dedup check failed for %s: %w", eventID, err)
	}
	if isDup {
		metrics.EventsDuplicate.Inc()
		a.log.Debugf("Duplicate event ignored: %s", eventID)
		return nil
	}

	// Tokens may be referenced before they were ever seen; create them
	// before any bucket or price work.
	if err = a.registry.EnsureTokensExist(ctx, ev.TokenAddresses); err != nil {
		return fmt.Errorf("ensure tokens for %s: %w", eventID, err)
	}

	pool, err := a.store.LoadPool(ctx, domain.NormalizeAddress(ev.PoolAddress))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s (event %s)", ErrPoolNotFound, ev.PoolAddress, eventID)
	}
	if err != nil {
		return fmt.Errorf("load pool %s: %w", ev.PoolAddress, err)
	}

	patches := make([]*domain.TokenStatsPatch, 0, len(ev.Deltas))
	for i := range ev.Deltas {
		patch, err := a.applyTokenDelta(ctx, ev, pool, &ev.Deltas[i])
		if err != nil {
			return fmt.Errorf("apply delta for %s: %w", eventID, err)
		}
		patches = append(patches, patch)
	}

	if err = a.resolver.UpsertTokenPrice(ctx, pool, ev.PoolLiquidity, ev.HasUsdPrice); err != nil {
		return fmt.Errorf("upsert token prices for %s: %w", eventID, err)
	}

	// Broadcast failures are not critical: clients catch up on the next event.
	for _, patch := range patches {
		patch.Price, _ = a.loadPrice(ctx, patch.Token)
		if err = a.broadcaster.Publish(ctx, patch.Topic, patch); err != nil {
			a.log.Errorf("failed to broadcast patch for %s: %v", patch.Topic, err)
		}
	}

	// Marked only after the whole event went through, so a failed attempt
	// is retried instead of being swallowed as a duplicate. Mark failures
	// are not fatal: re-processing converges through the idempotent upserts.
	if err = a.deduper.MarkSeen(ctx, eventID); err != nil {
		a.log.Errorf("failed to mark event as seen %s: %v", eventID, err)
	}

	metrics.EventsProcessed.Inc()
	a.log.Debugf("event processed: %s (pool=%s, kind=%s)", eventID, ev.PoolAddress, ev.Kind)

	return nil
}

// applyTokenDelta folds one token's movement into its lifetime counters
// and its day buckets, and queues the archived snapshot.
func (a *AggregatorService) applyTokenDelta(ctx context.Context, ev *domain.PoolEvent, pool *domain.Pool, delta *domain.TokenDelta) (*domain.TokenStatsPatch, error) {
	token, err := a.registry.GetOrCreateToken(ctx, delta.TokenAddress)
	if err != nil {
		return nil, err
	}

	units := delta.AmountUnits
	usd := delta.AmountUSD
	step := int64(1)
	if ev.Removed {
		// reorg compensation: invert the whole delta
		units = units.Neg()
		usd = usd.Neg()
		step = -1
	}

	d := stats.Deltas{TxCount: &step}
	switch ev.Kind {
	case domain.EventSwap:
		volUnits := units.Abs()
		volUsd := usd.Abs()
		if ev.Removed {
			volUnits = volUnits.Neg()
			volUsd = volUsd.Neg()
		}
		d.SwapTxCount = &step
		d.SwapVolumeInUnits = &volUnits
		d.SwapVolumeInUsd = &volUsd
	case domain.EventJoin, domain.EventExit:
		// exits arrive with negative amounts, so adding is enough
		d.LiquidityInUnits = &units
		d.LiquidityInUsd = &usd
	case domain.EventWeight:
		// weight updates only shift prices; the bucket records the tx
	}

	bucket, err := a.accumulator.UpdateDailyTokenStatistics(ctx, token, ev.BlockTimestamp, d)
	if err != nil {
		return nil, err
	}

	if ev.Kind == domain.EventSwap {
		sd := stats.SwapDeltas{
			SwapTxCount:       d.SwapTxCount,
			SwapVolumeInUsd:   d.SwapVolumeInUsd,
			SwapVolumeInUnits: d.SwapVolumeInUnits,
		}
		if _, err = a.accumulator.UpdateDailySwapStatistics(ctx, token, ev.BlockTimestamp, sd); err != nil {
			return nil, err
		}
	}

	token.TxCount += step
	if ev.Kind == domain.EventSwap {
		token.SwapTxCount += step
	}
	if ev.Kind == domain.EventJoin || ev.Kind == domain.EventExit {
		token.TotalLiquidity = token.TotalLiquidity.Add(units)
	}
	if err = a.store.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save token counters %s: %w", token.ID, err)
	}

	if a.archiver != nil {
		row := clickhouse.DailyStatsRow{
			EventTime:       time.Unix(ev.BlockTimestamp, 0).UTC(),
			DayID:           bucket.DayID,
			TokenAddress:    token.ID,
			TokenSymbol:     token.Symbol,
			PoolAddress:     domain.NormalizeAddress(ev.PoolAddress),
			SwapVolumeUsd:   bucket.SwapVolumeInUsd.String(),
			SwapVolumeUnits: bucket.SwapVolumeInUnits.String(),
			SwapTxCount:     bucket.SwapTxCount,
			LiquidityUnits:  bucket.LiquidityInUnits.String(),
			LiquidityUsd:    bucket.LiquidityInUsd.String(),
			TxCount:         bucket.TxCount,
			BlockNumber:     ev.BlockNumber,
		}
		if err = a.archiver.Enqueue(row); err != nil {
			a.log.Errorf("failed to archive bucket %s: %v", bucket.ID, err)
		}
	}

	return &domain.TokenStatsPatch{
		Topic:       "token." + token.ID,
		Token:       token.ID,
		GeneratedAt: time.Now().UTC(),
		Daily:       bucket,
	}, nil
}

func (a *AggregatorService) loadPrice(ctx context.Context, tokenAddr string) (*domain.TokenPrice, error) {
	p, err := a.store.LoadTokenPrice(ctx, tokenAddr)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// GetToken returns the token entity for the HTTP layer.
func (a *AggregatorService) GetToken(ctx context.Context, addr string) (*domain.Token, error) {
	t, err := a.store.LoadToken(ctx, domain.NormalizeAddress(addr))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	return t, err
}

// GetTokenPrice returns the current reference price, nil when none was
// derived yet.
func (a *AggregatorService) GetTokenPrice(ctx context.Context, addr string) (*domain.TokenPrice, error) {
	return a.loadPrice(ctx, domain.NormalizeAddress(addr))
}

// GetDailyStats returns the bucket for (token, day), nil when the day
// had no activity and no carryover.
func (a *AggregatorService) GetDailyStats(ctx context.Context, addr string, dayID int64) (*domain.DailyTokenStatistics, error) {
	id := domain.DayBucketID(addr, dayID)
	st, err := a.store.LoadDailyTokenStats(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

func (a *AggregatorService) CheckDependency(ctx context.Context) error {
	errDependency := make([]string, 0, 3)

	if err := a.deduper.Health(ctx); err != nil {
		errDependency = append(errDependency, fmt.Sprintf("deduper: %v", err))
	}

	if a.archiver != nil {
		if err := a.archiver.Health(ctx); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("clickhouse: %v", err))
		}
	}

	if err := a.broadcaster.Health(ctx); err != nil {
		errDependency = append(errDependency, "nats: connection not ready")
	}

	if len(errDependency) > 0 {
		return fmt.Errorf("dependency check failed: %v", strings.Join(errDependency, "; "))
	}

	return nil
}
