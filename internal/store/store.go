package store

import (
	"context"
	"errors"

	"poolstats/internal/domain"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when an entity has no ID or is nil.
	ErrInvalidInput = errors.New("invalid entity input")
)

// EntityStore is the keyed entity store the aggregation core writes through.
// Load returns ErrNotFound for absent IDs; Save is create-or-replace by ID.
// IDs are case-normalized hex addresses or composite strings
// ("<poolID>-<tokenAddress>", "<tokenAddress>-<dayID>").
type EntityStore interface {
	LoadToken(ctx context.Context, id string) (*domain.Token, error)
	SaveToken(ctx context.Context, t *domain.Token) error

	LoadTokenPrice(ctx context.Context, id string) (*domain.TokenPrice, error)
	SaveTokenPrice(ctx context.Context, p *domain.TokenPrice) error

	LoadPool(ctx context.Context, id string) (*domain.Pool, error)
	SavePool(ctx context.Context, p *domain.Pool) error

	LoadPoolToken(ctx context.Context, id string) (*domain.PoolToken, error)
	SavePoolToken(ctx context.Context, pt *domain.PoolToken) error

	LoadDailyTokenStats(ctx context.Context, id string) (*domain.DailyTokenStatistics, error)
	SaveDailyTokenStats(ctx context.Context, s *domain.DailyTokenStatistics) error

	LoadDailySwapStats(ctx context.Context, id string) (*domain.DailySwapStatistics, error)
	SaveDailySwapStats(ctx context.Context, s *domain.DailySwapStatistics) error
}
