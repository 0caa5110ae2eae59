package store

import (
	"context"
	"sync"

	"poolstats/internal/domain"
)

// MemoryStore is an in-memory EntityStore for dev runs and tests.
// Entities are copied on the way in and out so callers cannot mutate
// stored state behind the store's back.
type MemoryStore struct {
	mu         sync.RWMutex
	tokens     map[string]*domain.Token
	prices     map[string]*domain.TokenPrice
	pools      map[string]*domain.Pool
	poolTokens map[string]*domain.PoolToken
	dailyToken map[string]*domain.DailyTokenStatistics
	dailySwap  map[string]*domain.DailySwapStatistics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:     make(map[string]*domain.Token),
		prices:     make(map[string]*domain.TokenPrice),
		pools:      make(map[string]*domain.Pool),
		poolTokens: make(map[string]*domain.PoolToken),
		dailyToken: make(map[string]*domain.DailyTokenStatistics),
		dailySwap:  make(map[string]*domain.DailySwapStatistics),
	}
}

func (s *MemoryStore) LoadToken(_ context.Context, id string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) SaveToken(_ context.Context, t *domain.Token) error {
	if t == nil || t.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	s.tokens[domain.NormalizeAddress(t.ID)] = &cp
	return nil
}

func (s *MemoryStore) LoadTokenPrice(_ context.Context, id string) (*domain.TokenPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SaveTokenPrice(_ context.Context, p *domain.TokenPrice) error {
	if p == nil || p.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.prices[domain.NormalizeAddress(p.ID)] = &cp
	return nil
}

func (s *MemoryStore) LoadPool(_ context.Context, id string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.TokensList = append([]string(nil), p.TokensList...)
	return &cp, nil
}

func (s *MemoryStore) SavePool(_ context.Context, p *domain.Pool) error {
	if p == nil || p.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.TokensList = append([]string(nil), p.TokensList...)
	s.pools[domain.NormalizeAddress(p.ID)] = &cp
	return nil
}

func (s *MemoryStore) LoadPoolToken(_ context.Context, id string) (*domain.PoolToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.poolTokens[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pt
	return &cp, nil
}

func (s *MemoryStore) SavePoolToken(_ context.Context, pt *domain.PoolToken) error {
	if pt == nil || pt.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *pt
	s.poolTokens[domain.NormalizeAddress(pt.ID)] = &cp
	return nil
}

func (s *MemoryStore) LoadDailyTokenStats(_ context.Context, id string) (*domain.DailyTokenStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.dailyToken[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStore) SaveDailyTokenStats(_ context.Context, st *domain.DailyTokenStatistics) error {
	if st == nil || st.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.dailyToken[domain.NormalizeAddress(st.ID)] = &cp
	return nil
}

func (s *MemoryStore) LoadDailySwapStats(_ context.Context, id string) (*domain.DailySwapStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.dailySwap[domain.NormalizeAddress(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStore) SaveDailySwapStats(_ context.Context, st *domain.DailySwapStatistics) error {
	if st == nil || st.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.dailySwap[domain.NormalizeAddress(st.ID)] = &cp
	return nil
}

var _ EntityStore = (*MemoryStore)(nil)
