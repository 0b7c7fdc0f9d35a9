package search

import (
	"context"

	"compare-base/pkg/cache"
	"compare-base/pkg/logger"
	"compare-base/pkg/models"
	"compare-base/pkg/trie"
)

// Cached wraps a Provider with the sqlite listing cache. Keys are normalized
// product names, so "MacBook  Air" and "macbook air" share an entry.
type Cached struct {
	inner Provider
	store *cache.Cache
}

func NewCached(inner Provider, store *cache.Cache) *Cached {
	return &Cached{inner: inner, store: store}
}

func (c *Cached) Search(ctx context.Context, productName string) ([]models.Listing, error) {
	key := trie.Normalize(productName)

	if listings, ok := c.store.Get(key); ok {
		logger.Dedup("cache hit for %q", key)
		return listings, nil
	}

	listings, err := c.inner.Search(ctx, productName)
	if err != nil {
		return nil, err
	}

	c.store.Set(key, listings)
	return listings, nil
}
