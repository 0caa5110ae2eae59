package erc20

import (
	"context"

	"github.com/shopspring/decimal"
)

// Call outcomes are two-variant: a value, or "the call reverted".
// A revert is a normal result here, never an error: metadata resolution
// stays total and degrades to defaults instead of failing.

type StringResult struct {
	Value    string
	Reverted bool
}

type BytesResult struct {
	Value    []byte
	Reverted bool
}

type IntResult struct {
	Value    int32
	Reverted bool
}

type DecimalResult struct {
	Value    decimal.Decimal
	Reverted bool
}

// Caller reads ERC20 metadata from a token contract. The byte-array
// variants cover tokens whose ABI encodes symbol/name as fixed-size
// bytes instead of strings (the string-typed call reverts for those).
type Caller interface {
	Symbol(ctx context.Context, addr string) StringResult
	Name(ctx context.Context, addr string) StringResult
	Decimals(ctx context.Context, addr string) IntResult
	TotalSupply(ctx context.Context, addr string) DecimalResult

	SymbolBytes(ctx context.Context, addr string) BytesResult
	NameBytes(ctx context.Context, addr string) BytesResult
}

func RevertedString() StringResult   { return StringResult{Reverted: true} }
func RevertedBytes() BytesResult     { return BytesResult{Reverted: true} }
func RevertedInt() IntResult         { return IntResult{Reverted: true} }
func RevertedDecimal() DecimalResult { return DecimalResult{Reverted: true} }
