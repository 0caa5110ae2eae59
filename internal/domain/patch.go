package domain

import "time"

// Patch fanned out to subscribers after an event is folded in: the
// token's updated day bucket and, when it changed, its reference price.
type TokenStatsPatch struct {
	Topic       string                `json:"topic"` // "token.<address>"
	Token       string                `json:"token"`
	GeneratedAt time.Time             `json:"ts"`
	Daily       *DailyTokenStatistics `json:"daily,omitempty"`
	Price       *TokenPrice           `json:"price,omitempty"`
}
