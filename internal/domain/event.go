package domain

import "github.com/shopspring/decimal"

type EventKind string

const (
	EventSwap   EventKind = "swap"
	EventJoin   EventKind = "join"
	EventExit   EventKind = "exit"
	EventWeight EventKind = "weight"
)

// Movement of one token inside a pool event. Amounts are decimal strings
// on the wire, parsed once at ingestion.
type TokenDelta struct {
	TokenAddress string          `json:"token_address"`
	AmountUnits  decimal.Decimal `json:"amount_units"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
}

// Decoded pool event delivered by the event stream. One event carries
// everything needed to fold it into the aggregates: the pool's current
// total liquidity value and the per-token movements.
type PoolEvent struct {
	ChainID        uint32          `json:"chain_id"`
	TxHash         string          `json:"tx_hash"` // 0x-prefixed 66 chars
	LogIndex       uint32          `json:"log_index"`
	EventID        string          `json:"event_id"` // chain:tx_hash:log_index
	Kind           EventKind       `json:"kind"`
	PoolAddress    string          `json:"pool_address"`
	TokenAddresses []string        `json:"token_addresses"`
	Deltas         []TokenDelta    `json:"deltas"`
	PoolLiquidity  decimal.Decimal `json:"pool_liquidity"` // USD value of the whole pool
	HasUsdPrice    bool            `json:"has_usd_price"`  // pool carries a confirmed USD reference
	BlockTimestamp int64           `json:"block_timestamp"`
	BlockNumber    uint64          `json:"block_number"`
	Removed        bool            `json:"removed"` // reorg compensation flag
	SchemaVer      uint16          `json:"schema_version"`
}
