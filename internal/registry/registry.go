package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"

	"poolstats/internal/domain"
	"poolstats/internal/erc20"
	"poolstats/internal/store"
)

const defaultDecimals = 18

// Registry owns Token entity creation. The factory ID is injected once
// here instead of being resolved ad hoc per call.
type Registry struct {
	log       logger.Logger
	store     store.EntityStore
	caller    erc20.Caller
	factoryID string
}

func New(log logger.Logger, st store.EntityStore, caller erc20.Caller, factoryID string) (*Registry, error) {
	if st == nil {
		return nil, errors.New("entity store is required to the registry")
	}
	if caller == nil {
		return nil, errors.New("erc20 caller is required to the registry")
	}

	return &Registry{
		log:       log,
		store:     st,
		caller:    caller,
		factoryID: factoryID,
	}, nil
}

// GetOrCreateToken loads the Token for addr, creating it with resolved
// metadata and zeroed counters on first reference. Idempotent: a second
// call without intervening state change returns the same record.
func (r *Registry) GetOrCreateToken(ctx context.Context, addr string) (*domain.Token, error) {
	id := domain.NormalizeAddress(addr)
	if id == "" {
		return nil, fmt.Errorf("token address is empty")
	}

	token, err := r.store.LoadToken(ctx, id)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load token %s: %w", id, err)
	}

	meta := r.ResolveTokenMetadata(ctx, id)

	token = &domain.Token{
		ID:             id,
		Factory:        r.factoryID,
		Symbol:         meta.Symbol,
		Name:           meta.Name,
		Decimals:       meta.Decimals,
		TotalLiquidity: decimal.Zero,
		TxCount:        0,
		SwapTxCount:    0,
	}

	if err = r.store.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save token %s: %w", id, err)
	}

	r.log.Debugf("Created token %s (symbol=%s, decimals=%d)", id, token.Symbol, token.Decimals)
	return token, nil
}

// ResolveTokenMetadata reads name/symbol/decimals/totalSupply from the
// token contract. String-typed calls first, byte-array fallback for
// tokens with bytes32 metadata, defaults when both revert. Never fails.
func (r *Registry) ResolveTokenMetadata(ctx context.Context, addr string) domain.TokenMetadata {
	meta := domain.TokenMetadata{
		Decimals:    defaultDecimals,
		TotalSupply: decimal.Zero,
	}

	if res := r.caller.Symbol(ctx, addr); !res.Reverted {
		meta.Symbol = res.Value
	} else if res := r.caller.SymbolBytes(ctx, addr); !res.Reverted {
		meta.Symbol = decodeBytesString(res.Value)
	}

	if res := r.caller.Name(ctx, addr); !res.Reverted {
		meta.Name = res.Value
	} else if res := r.caller.NameBytes(ctx, addr); !res.Reverted {
		meta.Name = decodeBytesString(res.Value)
	}

	if res := r.caller.Decimals(ctx, addr); !res.Reverted {
		meta.Decimals = res.Value
	}

	if res := r.caller.TotalSupply(ctx, addr); !res.Reverted {
		meta.TotalSupply = res.Value
	}

	return meta
}

// EnsureTokensExist creates Token records for every address in the list
// that has none yet. Existing tokens are left untouched, empty entries
// are skipped, a nil or empty list is a no-op.
func (r *Registry) EnsureTokensExist(ctx context.Context, addrs []string) error {
	if len(addrs) == 0 {
		return nil
	}

	for _, addr := range addrs {
		if strings.TrimSpace(addr) == "" {
			continue
		}

		if _, err := r.GetOrCreateToken(ctx, addr); err != nil {
			return fmt.Errorf("ensure token %s: %w", addr, err)
		}
	}

	return nil
}

// Fixed-size byte arrays come back NUL-padded; trim before use.
func decodeBytesString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
