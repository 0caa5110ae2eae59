package price

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

// ErrPoolTokenMissing reports a caller contract violation: UpsertTokenPrice
// requires the PoolToken for every (pool, token) pair to exist already.
var ErrPoolTokenMissing = errors.New("pool token not registered before price upsert")

// Resolver keeps each token's USD price pinned to the deepest-liquidity
// pool the token appears in. The two numeraire tokens (wrapped native
// currency, canonical stablecoin) only take prices from two-asset pools
// with a confirmed USD reference, to avoid circular pricing through
// their own multi-asset pools.
type Resolver struct {
	log   logger.Logger
	store store.EntityStore

	wrappedNative string
	stablecoin    string
}

func NewResolver(log logger.Logger, st store.EntityStore, wrappedNative, stablecoin string) (*Resolver, error) {
	if st == nil {
		return nil, errors.New("entity store is required to the price resolver")
	}

	return &Resolver{
		log:           log,
		store:         st,
		wrappedNative: domain.NormalizeAddress(wrappedNative),
		stablecoin:    domain.NormalizeAddress(stablecoin),
	}, nil
}

// UpsertTokenPrice re-evaluates the reference price of every token in the
// pool against the pool's current liquidity. Tokens that keep their
// existing reference pool are not touched.
func (r *Resolver) UpsertTokenPrice(ctx context.Context, pool *domain.Pool, poolLiquidity decimal.Decimal, hasUsdPrice bool) error {
	if pool == nil {
		return errors.New("pool is required to upsert token prices")
	}

	for _, rawAddr := range pool.TokensList {
		tokenAddr := domain.NormalizeAddress(rawAddr)

		tokenPrice, err := r.store.LoadTokenPrice(ctx, tokenAddr)
		if errors.Is(err, store.ErrNotFound) {
			tokenPrice = &domain.TokenPrice{
				ID:            tokenAddr,
				PoolTokenID:   "",
				PoolLiquidity: decimal.Zero,
			}
		} else if err != nil {
			return fmt.Errorf("load token price %s: %w", tokenAddr, err)
		}

		poolTokenID := domain.PoolTokenID(pool.ID, tokenAddr)

		if !r.shouldAdopt(tokenPrice, poolTokenID, poolLiquidity, tokenAddr, pool, hasUsdPrice) {
			continue
		}

		poolToken, err := r.store.LoadPoolToken(ctx, poolTokenID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPoolTokenMissing, poolTokenID)
		}
		if err != nil {
			return fmt.Errorf("load pool token %s: %w", poolTokenID, err)
		}

		tokenPrice.Price = decimal.Zero
		if poolToken.Balance.IsPositive() && pool.TotalWeight.IsPositive() {
			// USD value of one unit of this token's weighted share
			tokenPrice.Price = poolLiquidity.
				Div(pool.TotalWeight).
				Mul(poolToken.DenormWeight).
				Div(poolToken.Balance)
		}

		tokenPrice.Symbol = poolToken.Symbol
		tokenPrice.Name = poolToken.Name
		tokenPrice.Decimals = poolToken.Decimals
		tokenPrice.PoolLiquidity = poolLiquidity
		tokenPrice.PoolTokenID = poolTokenID

		if err = r.store.SaveTokenPrice(ctx, tokenPrice); err != nil {
			return fmt.Errorf("save token price %s: %w", tokenAddr, err)
		}
		metrics.PriceAdoptions.Inc()

		r.log.Debugf("Adopted price source %s for token %s (price=%s, liquidity=%s)",
			poolTokenID, tokenAddr, tokenPrice.Price, poolLiquidity)
	}

	return nil
}

// adopt when the pool is the current reference or strictly deeper, and
// the token is either not a numeraire or the pool is a two-asset pool
// with a confirmed USD price.
func (r *Resolver) shouldAdopt(tp *domain.TokenPrice, poolTokenID string, poolLiquidity decimal.Decimal, tokenAddr string, pool *domain.Pool, hasUsdPrice bool) bool {
	isReferencePool := tp.PoolTokenID == poolTokenID
	deeper := poolLiquidity.GreaterThan(tp.PoolLiquidity)
	if !isReferencePool && !deeper {
		return false
	}

	if tokenAddr != r.wrappedNative && tokenAddr != r.stablecoin {
		return true
	}

	return pool.TokensCount == 2 && hasUsdPrice
}
