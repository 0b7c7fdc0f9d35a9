// Package compare is the comparison engine: it turns one request into a
// ranked cross-platform decision, backed by the bloom filter for repeat
// detection and the product index for name lookups. Both structures are
// process-lifetime singletons shared by every request.
package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"compare-base/pkg/bloom"
	"compare-base/pkg/logger"
	"compare-base/pkg/models"
	"compare-base/pkg/search"
	"compare-base/pkg/trie"

	"github.com/charmbracelet/log"
)

type Options struct {
	ExpectedItems     uint64
	FalsePositiveRate float64
	// HighWaterMark is the filter load factor past which a fresh filter is
	// swapped in, bounding the false-positive rate.
	HighWaterMark   float64
	SearchTimeout   time.Duration
	BulkConcurrency int
}

func DefaultOptions() Options {
	return Options{
		ExpectedItems:     10000,
		FalsePositiveRate: 0.01,
		HighWaterMark:     0.5,
		SearchTimeout:     30 * time.Second,
		BulkConcurrency:   8,
	}
}

type Service struct {
	provider search.Provider
	index    *trie.Index
	filter   atomic.Pointer[bloom.Filter]
	opts     Options
	log      *log.Logger
}

func New(provider search.Provider, opts Options) (*Service, error) {
	f, err := bloom.New(opts.ExpectedItems, opts.FalsePositiveRate)
	if err != nil {
		return nil, err
	}
	if opts.HighWaterMark <= 0 {
		opts.HighWaterMark = 0.5
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = 1
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 30 * time.Second
	}
	s := &Service{
		provider: provider,
		index:    trie.New(),
		opts:     opts,
		log:      logger.New("compare"),
	}
	s.filter.Store(f)
	return s, nil
}

// Index exposes the product index for the suggestion surface.
func (s *Service) Index() *trie.Index {
	return s.index
}

// Compare runs one comparison end to end.
func (s *Service) Compare(ctx context.Context, req models.ComparisonRequest) (*models.ComparisonResult, error) {
	if req.ProductName == "" {
		return nil, fmt.Errorf("%w: product_name must not be empty", models.ErrInvalidRequest)
	}
	if req.CurrentPrice <= 0 {
		return nil, fmt.Errorf("%w: current_price must be > 0", models.ErrInvalidRequest)
	}
	if req.CurrentPlatform == "" {
		return nil, fmt.Errorf("%w: current_platform must not be empty", models.ErrInvalidRequest)
	}

	normalized := trie.Normalize(req.ProductName)

	// Informational only: a known name does not skip the search.
	if s.index.Contains(normalized) {
		s.log.Debugf("known product %q (%d lookups)", normalized, s.index.Queries(normalized))
	}

	s.recordSearchKey(normalized, req.CurrentPlatform)

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	listings, err := s.provider.Search(searchCtx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSearchUnavailable, err)
	}

	alternatives := make([]models.PlatformPrice, 0, len(listings))
	for _, l := range listings {
		alternatives = append(alternatives, models.PlatformPrice{
			Platform:           l.Platform,
			Price:              l.Price,
			URL:                l.URL,
			DiscountPercentage: discount(req.CurrentPrice, l.Price),
			Availability:       l.InStock,
			Rating:             l.Rating,
			DeliveryTime:       l.EstimatedDelivery,
		})
	}

	current := models.PlatformPrice{
		Platform:     req.CurrentPlatform,
		Price:        req.CurrentPrice,
		Availability: true,
	}

	best := bestDeal(alternatives, current)
	savings := req.CurrentPrice - best.Price

	s.index.Insert(normalized)

	return &models.ComparisonResult{
		CurrentPlatform:  current,
		Alternatives:     alternatives,
		BestDeal:         best,
		PotentialSavings: savings,
		Recommendations:  recommendations(best, savings),
	}, nil
}

// recordSearchKey flags the (product, platform) pair in the filter so later
// identical requests are recognized as repeats, and swaps in a fresh filter
// once the load factor crosses the high-water mark.
func (s *Service) recordSearchKey(normalized, platform string) {
	key := []byte(normalized + "|" + platform)
	f := s.filter.Load()

	if f.MightContain(key) {
		logger.Dedup("repeat search for %q on %s", normalized, platform)
	}
	f.Insert(key)

	if f.LoadFactor() > s.opts.HighWaterMark {
		fresh, err := bloom.New(s.opts.ExpectedItems, s.opts.FalsePositiveRate)
		if err == nil && s.filter.CompareAndSwap(f, fresh) {
			s.log.Warnf("search filter crossed load factor %.2f, reset", s.opts.HighWaterMark)
		}
	}
}

// MightBeRepeat reports whether the (product, platform) pair was recorded in
// the current filter generation. False positives possible, false negatives
// not.
func (s *Service) MightBeRepeat(productName, platform string) bool {
	key := []byte(trie.Normalize(productName) + "|" + platform)
	return s.filter.Load().MightContain(key)
}

func discount(currentPrice, price float64) float64 {
	d := (currentPrice - price) / currentPrice * 100
	if d < 0 {
		return 0
	}
	return d
}

// bestDeal picks the cheapest candidate among the alternatives and the
// current-platform snapshot. Ties break on higher rating (missing rating
// loses), then on discovery order; the current snapshot is the last
// candidate discovered.
func bestDeal(alternatives []models.PlatformPrice, current models.PlatformPrice) models.PlatformPrice {
	candidates := make([]models.PlatformPrice, 0, len(alternatives)+1)
	candidates = append(candidates, alternatives...)
	candidates = append(candidates, current)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Price != candidates[j].Price {
			return candidates[i].Price < candidates[j].Price
		}
		return ratingOf(candidates[i]) > ratingOf(candidates[j])
	})
	return candidates[0]
}

func ratingOf(p models.PlatformPrice) float64 {
	if p.Rating == nil {
		return -1
	}
	return *p.Rating
}

// recommendations keeps the savings message ahead of the rating message when
// both apply.
func recommendations(best models.PlatformPrice, savings float64) []string {
	recs := []string{}
	if savings > 0 {
		recs = append(recs, fmt.Sprintf("You can save $%.2f by buying from %s", savings, best.Platform))
	}
	if best.Rating != nil && *best.Rating > 4.0 {
		recs = append(recs, fmt.Sprintf("%s has excellent ratings (%.1f/5)", best.Platform, *best.Rating))
	}
	return recs
}

// IsTimeout reports whether a Compare error was caused by the search
// deadline, so the transport can answer 504 instead of 502.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
