package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/domain"
)

type QueryService struct {
	repo     domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	if c == nil {
		c = nopCache{}
	}
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// List returns every record of k, served from the list cache when possible.
func (s *QueryService) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	// the generation is read before the store; an unreadable one disables
	// caching for this call
	var gen int64
	_, genErr := s.cache.Get(ctx, listGenKey(k), &gen)
	key := listKey(k, gen)
	if genErr == nil {
		var raws []json.RawMessage
		if ok, _ := s.cache.Get(ctx, key, &raws); ok {
			if items, err := decodeList(k, raws); err == nil {
				return items, nil
			}
		}
	}

	items, err := s.repo.List(ctx, k)
	observability.ObserveStore(k.Collection, "list", err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k.Plural, err)
	}
	if items == nil {
		items = []domain.Entity{}
	}

	if genErr != nil {
		return items, nil
	}
	// optional size guard
	if b, _ := json.Marshal(items); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, items, int(s.cacheTTL.Seconds()))
	}
	return items, nil
}
