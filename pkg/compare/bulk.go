package compare

import (
	"context"

	"compare-base/pkg/models"

	"golang.org/x/sync/errgroup"
)

// CompareBulk runs every request concurrently and returns the successful
// results in input order. Failed items are logged and dropped; the batch
// itself never fails.
func (s *Service) CompareBulk(ctx context.Context, reqs []models.ComparisonRequest) []models.ComparisonResult {
	slots := make([]*models.ComparisonResult, len(reqs))

	g := &errgroup.Group{}
	g.SetLimit(s.opts.BulkConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Compare(ctx, req)
			if err != nil {
				s.log.Warnf("bulk item %d (%q) dropped: %v", i, req.ProductName, err)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	g.Wait()

	results := make([]models.ComparisonResult, 0, len(reqs))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results
}
