package erc20

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"poolstats/internal/domain"
)

// TokenRecord is one row of the static token table. Zero-value fields
// mean "this call reverts", which lets tests model byte-only tokens and
// fully broken contracts.
type TokenRecord struct {
	Symbol      string
	Name        string
	SymbolBytes []byte
	NameBytes   []byte
	Decimals    *int32
	TotalSupply *decimal.Decimal
}

// StaticCaller serves metadata from a fixed table. Used in tests and in
// replay runs where no chain endpoint is available; unknown addresses
// revert on every call.
type StaticCaller struct {
	mu     sync.RWMutex
	tokens map[string]TokenRecord
}

func NewStaticCaller() *StaticCaller {
	return &StaticCaller{tokens: make(map[string]TokenRecord)}
}

func (c *StaticCaller) Register(addr string, rec TokenRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[domain.NormalizeAddress(addr)] = rec
}

func (c *StaticCaller) lookup(addr string) (TokenRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.tokens[domain.NormalizeAddress(addr)]
	return rec, ok
}

func (c *StaticCaller) Symbol(_ context.Context, addr string) StringResult {
	rec, ok := c.lookup(addr)
	if !ok || rec.Symbol == "" {
		return RevertedString()
	}
	return StringResult{Value: rec.Symbol}
}

func (c *StaticCaller) Name(_ context.Context, addr string) StringResult {
	rec, ok := c.lookup(addr)
	if !ok || rec.Name == "" {
		return RevertedString()
	}
	return StringResult{Value: rec.Name}
}

func (c *StaticCaller) Decimals(_ context.Context, addr string) IntResult {
	rec, ok := c.lookup(addr)
	if !ok || rec.Decimals == nil {
		return RevertedInt()
	}
	return IntResult{Value: *rec.Decimals}
}

func (c *StaticCaller) TotalSupply(_ context.Context, addr string) DecimalResult {
	rec, ok := c.lookup(addr)
	if !ok || rec.TotalSupply == nil {
		return RevertedDecimal()
	}
	return DecimalResult{Value: *rec.TotalSupply}
}

func (c *StaticCaller) SymbolBytes(_ context.Context, addr string) BytesResult {
	rec, ok := c.lookup(addr)
	if !ok || len(rec.SymbolBytes) == 0 {
		return RevertedBytes()
	}
	return BytesResult{Value: rec.SymbolBytes}
}

func (c *StaticCaller) NameBytes(_ context.Context, addr string) BytesResult {
	rec, ok := c.lookup(addr)
	if !ok || len(rec.NameBytes) == 0 {
		return RevertedBytes()
	}
	return BytesResult{Value: rec.NameBytes}
}

var _ Caller = (*StaticCaller)(nil)
