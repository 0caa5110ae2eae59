package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"poolstats/internal/domain"
)

// RedisStore is an EntityStore backed by Redis. Entities are stored as
// JSON under "<prefix><kind>:<id>" keys so several aggregator instances
// can share one state set.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisStore(rdb *goredis.Client, prefix string) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required to the redis store")
	}
	if prefix == "" {
		prefix = "poolstats:"
	}

	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) key(kind, id string) string {
	return s.prefix + kind + ":" + domain.NormalizeAddress(id)
}

func (s *RedisStore) load(ctx context.Context, kind, id string, dst any) error {
	b, err := s.rdb.Get(ctx, s.key(kind, id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis GET %s: %w", kind, err)
	}

	if err = json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode stored %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, kind, id string, v any) error {
	if id == "" {
		return ErrInvalidInput
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	if err = s.rdb.Set(ctx, s.key(kind, id), b, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) LoadToken(ctx context.Context, id string) (*domain.Token, error) {
	var t domain.Token
	if err := s.load(ctx, "token", id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RedisStore) SaveToken(ctx context.Context, t *domain.Token) error {
	if t == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "token", t.ID, t)
}

func (s *RedisStore) LoadTokenPrice(ctx context.Context, id string) (*domain.TokenPrice, error) {
	var p domain.TokenPrice
	if err := s.load(ctx, "price", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) SaveTokenPrice(ctx context.Context, p *domain.TokenPrice) error {
	if p == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "price", p.ID, p)
}

func (s *RedisStore) LoadPool(ctx context.Context, id string) (*domain.Pool, error) {
	var p domain.Pool
	if err := s.load(ctx, "pool", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) SavePool(ctx context.Context, p *domain.Pool) error {
	if p == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "pool", p.ID, p)
}

func (s *RedisStore) LoadPoolToken(ctx context.Context, id string) (*domain.PoolToken, error) {
	var pt domain.PoolToken
	if err := s.load(ctx, "pooltoken", id, &pt); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (s *RedisStore) SavePoolToken(ctx context.Context, pt *domain.PoolToken) error {
	if pt == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "pooltoken", pt.ID, pt)
}

func (s *RedisStore) LoadDailyTokenStats(ctx context.Context, id string) (*domain.DailyTokenStatistics, error) {
	var st domain.DailyTokenStatistics
	if err := s.load(ctx, "dailytoken", id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *RedisStore) SaveDailyTokenStats(ctx context.Context, st *domain.DailyTokenStatistics) error {
	if st == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "dailytoken", st.ID, st)
}

func (s *RedisStore) LoadDailySwapStats(ctx context.Context, id string) (*domain.DailySwapStatistics, error) {
	var st domain.DailySwapStatistics
	if err := s.load(ctx, "dailyswap", id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *RedisStore) SaveDailySwapStats(ctx context.Context, st *domain.DailySwapStatistics) error {
	if st == nil {
		return ErrInvalidInput
	}
	return s.save(ctx, "dailyswap", st.ID, st)
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

var _ EntityStore = (*RedisStore)(nil)
