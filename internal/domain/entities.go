package domain

import "github.com/shopspring/decimal"

// ERC20 token tracked by the aggregator.
// ID is the contract address, canonical lowercase hex.
type Token struct {
	ID             string          `json:"id"`
	Factory        string          `json:"factory"` // owning protocol factory
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Decimals       int32           `json:"decimals"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	TxCount        int64           `json:"tx_count"`
	SwapTxCount    int64           `json:"swap_tx_count"`
}

// Current USD unit price of a token together with the pool-token pairing
// the price was derived from. PoolTokenID + PoolLiquidity identify the
// reference pool; the pairing is replaced only by a strictly deeper pool
// or by a liquidity update of the reference pool itself.
type TokenPrice struct {
	ID            string          `json:"id"` // token address
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Decimals      int32           `json:"decimals"`
	Price         decimal.Decimal `json:"price"` // zero if undeterminable
	PoolTokenID   string          `json:"pool_token_id"`
	PoolLiquidity decimal.Decimal `json:"pool_liquidity"`
}

// Liquidity pool contract. Read-only here: owned by pool management
// outside this service.
type Pool struct {
	ID          string          `json:"id"` // pool contract address
	TokensList  []string        `json:"tokens_list"`
	TokensCount int             `json:"tokens_count"`
	TotalWeight decimal.Decimal `json:"total_weight"`
}

// Balance and weight of one token inside one pool.
// ID = "<poolID>-<tokenAddress>". Read-only here.
type PoolToken struct {
	ID           string          `json:"id"`
	PoolID       string          `json:"pool_id"`
	TokenAddress string          `json:"token_address"`
	Balance      decimal.Decimal `json:"balance"`
	DenormWeight decimal.Decimal `json:"denorm_weight"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Decimals     int32           `json:"decimals"`
}

// Per (token, calendar day) aggregate. ID = "<tokenAddress>-<dayID>".
// Liquidity fields of a fresh bucket are seeded from the previous day
// so idle days still report the latest known liquidity.
type DailyTokenStatistics struct {
	ID                string          `json:"id"`
	Token             string          `json:"token"`
	Date              int64           `json:"date"`   // timestamp of the day's first event, unix seconds (not day-aligned)
	DayID             int64           `json:"day_id"` // floor(timestamp/86400)
	SwapVolumeInUsd   decimal.Decimal `json:"swap_volume_in_usd"`
	SwapVolumeInUnits decimal.Decimal `json:"swap_volume_in_units"`
	SwapTxCount       int64           `json:"swap_tx_count"`
	LiquidityInUnits  decimal.Decimal `json:"liquidity_in_units"`
	LiquidityInUsd    decimal.Decimal `json:"liquidity_in_usd"`
	TxCount           int64           `json:"tx_count"`
}

// Swap-only daily aggregate. ID = "<tokenAddress>-<dayID>".
// Tracks flow metrics only, so new buckets start from zero and nothing
// is carried over from the previous day.
type DailySwapStatistics struct {
	ID                string          `json:"id"`
	Token             string          `json:"token"`
	Date              int64           `json:"date"`
	DayID             int64           `json:"day_id"`
	SwapVolumeInUsd   decimal.Decimal `json:"swap_volume_in_usd"`
	SwapVolumeInUnits decimal.Decimal `json:"swap_volume_in_units"`
	SwapTxCount       int64           `json:"swap_tx_count"`
}

// Best-effort ERC20 metadata. Resolution never fails: fields fall back
// to defaults when the underlying calls revert.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Decimals    int32
	TotalSupply decimal.Decimal
}
