// Package search turns a product name into cross-platform listings. The
// comparison engine only sees the Provider interface; behind it sit the
// per-platform scrapers, a shared rate limit, and an optional cache.
package search

import (
	"context"
	"fmt"
	"sync"

	"compare-base/pkg/logger"
	"compare-base/pkg/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Provider interface {
	Search(ctx context.Context, productName string) ([]models.Listing, error)
}

// PlatformScraper fetches one platform's listing for a product name.
type PlatformScraper interface {
	Platform() string
	Search(ctx context.Context, query string) (*models.Listing, error)
}

var log = logger.New("search")

// Multi fans a query out to every registered platform scraper. Individual
// platform failures are tolerated; it errors only when no platform answered.
type Multi struct {
	scrapers []PlatformScraper
	limiter  *rate.Limiter
}

func NewMulti(limiter *rate.Limiter, scrapers ...PlatformScraper) *Multi {
	return &Multi{scrapers: scrapers, limiter: limiter}
}

func (m *Multi) Search(ctx context.Context, productName string) ([]models.Listing, error) {
	var (
		mu       sync.Mutex
		listings []models.Listing
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.scrapers {
		g.Go(func() error {
			if m.limiter != nil {
				if err := m.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			listing, err := s.Search(gctx, productName)
			if err != nil {
				log.Warnf("%s search failed for %q: %v", s.Platform(), productName, err)
				mu.Lock()
				failures++
				mu.Unlock()
				// Per-platform failure does not cancel the group.
				return nil
			}
			mu.Lock()
			listings = append(listings, *listing)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(listings) == 0 && failures > 0 {
		return nil, fmt.Errorf("all %d platforms failed for %q", failures, productName)
	}
	return listings, nil
}
