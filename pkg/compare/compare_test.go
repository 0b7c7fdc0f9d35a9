package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"compare-base/pkg/models"
)

type fakeProvider struct {
	listings []models.Listing
	err      error
}

func (f *fakeProvider) Search(ctx context.Context, productName string) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.listings, f.err
}

func ptr(v float64) *float64 { return &v }

func newService(t *testing.T, provider *fakeProvider) *Service {
	t.Helper()
	s, err := New(provider, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestCompareBestDealScenario(t *testing.T) {
	s := newService(t, &fakeProvider{
		listings: []models.Listing{
			{Platform: "Amazon", Price: 999.99, URL: "https://amazon.com/laptop", InStock: true, Rating: ptr(4.5)},
		},
	})

	result, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "Laptop",
		CurrentPrice:    1099.99,
		CurrentPlatform: "Best Buy",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if result.BestDeal.Platform != "Amazon" {
		t.Errorf("best deal platform = %q, want Amazon", result.BestDeal.Platform)
	}
	if math.Abs(result.PotentialSavings-100.00) > 1e-9 {
		t.Errorf("potential savings = %v, want 100.00", result.PotentialSavings)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("recommendations = %v, want savings + rating messages", result.Recommendations)
	}
	if !strings.Contains(result.Recommendations[0], "Amazon") || !strings.Contains(result.Recommendations[0], "save") {
		t.Errorf("first recommendation %q is not the savings message", result.Recommendations[0])
	}
	if !strings.Contains(result.Recommendations[1], "ratings") {
		t.Errorf("second recommendation %q is not the rating message", result.Recommendations[1])
	}
}

func TestCompareNoAlternatives(t *testing.T) {
	s := newService(t, &fakeProvider{})

	result, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "Obscure Gadget",
		CurrentPrice:    49.99,
		CurrentPlatform: "Local Shop",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if result.BestDeal != result.CurrentPlatform {
		t.Errorf("best deal %+v should equal current platform snapshot %+v", result.BestDeal, result.CurrentPlatform)
	}
	if result.PotentialSavings != 0 {
		t.Errorf("potential savings = %v, want 0", result.PotentialSavings)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want empty", result.Recommendations)
	}
}

func TestCompareValidation(t *testing.T) {
	s := newService(t, &fakeProvider{})

	tests := []struct {
		name string
		req  models.ComparisonRequest
	}{
		{"empty product name", models.ComparisonRequest{CurrentPrice: 10, CurrentPlatform: "A"}},
		{"zero price", models.ComparisonRequest{ProductName: "x", CurrentPlatform: "A"}},
		{"negative price", models.ComparisonRequest{ProductName: "x", CurrentPrice: -1, CurrentPlatform: "A"}},
		{"empty platform", models.ComparisonRequest{ProductName: "x", CurrentPrice: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Compare(context.Background(), tt.req)
			if !errors.Is(err, models.ErrInvalidRequest) {
				t.Errorf("Compare(%+v) error = %v, want ErrInvalidRequest", tt.req, err)
			}
		})
	}
}

func TestCompareSearchUnavailable(t *testing.T) {
	s := newService(t, &fakeProvider{err: errors.New("all platforms down")})

	_, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "Laptop",
		CurrentPrice:    100,
		CurrentPlatform: "Shop",
	})
	if !errors.Is(err, models.ErrSearchUnavailable) {
		t.Errorf("error = %v, want ErrSearchUnavailable", err)
	}
}

func TestDiscountClampedAtZero(t *testing.T) {
	s := newService(t, &fakeProvider{
		listings: []models.Listing{
			{Platform: "Pricey", Price: 150, InStock: true},
			{Platform: "Cheap", Price: 80, InStock: true},
		},
	})

	result, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "Widget",
		CurrentPrice:    100,
		CurrentPlatform: "Shop",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	for _, alt := range result.Alternatives {
		if alt.DiscountPercentage < 0 {
			t.Errorf("%s discount = %v, want >= 0", alt.Platform, alt.DiscountPercentage)
		}
		want := math.Max(0, (100-alt.Price)/100*100)
		if math.Abs(alt.DiscountPercentage-want) > 1e-9 {
			t.Errorf("%s discount = %v, want %v", alt.Platform, alt.DiscountPercentage, want)
		}
	}
}

func TestBestDealInvariant(t *testing.T) {
	s := newService(t, &fakeProvider{
		listings: []models.Listing{
			{Platform: "A", Price: 90, InStock: true},
			{Platform: "B", Price: 70, InStock: true},
			{Platform: "C", Price: 110, InStock: true},
		},
	})

	result, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "Widget",
		CurrentPrice:    100,
		CurrentPlatform: "Shop",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if result.BestDeal.Price > result.CurrentPlatform.Price {
		t.Errorf("best deal price %v exceeds current platform price %v", result.BestDeal.Price, result.CurrentPlatform.Price)
	}
	for _, alt := range result.Alternatives {
		if result.BestDeal.Price > alt.Price {
			t.Errorf("best deal price %v exceeds alternative %s at %v", result.BestDeal.Price, alt.Platform, alt.Price)
		}
	}
	if result.PotentialSavings < 0 {
		t.Errorf("potential savings %v is negative", result.PotentialSavings)
	}
}

func TestBestDealTieBreaks(t *testing.T) {
	tests := []struct {
		name     string
		listings []models.Listing
		want     string
	}{
		{
			"higher rating wins price tie",
			[]models.Listing{
				{Platform: "LowRated", Price: 50, InStock: true, Rating: ptr(3.0)},
				{Platform: "HighRated", Price: 50, InStock: true, Rating: ptr(4.8)},
			},
			"HighRated",
		},
		{
			"missing rating loses price tie",
			[]models.Listing{
				{Platform: "Unrated", Price: 50, InStock: true},
				{Platform: "Rated", Price: 50, InStock: true, Rating: ptr(2.0)},
			},
			"Rated",
		},
		{
			"discovery order breaks full tie",
			[]models.Listing{
				{Platform: "First", Price: 50, InStock: true, Rating: ptr(4.0)},
				{Platform: "Second", Price: 50, InStock: true, Rating: ptr(4.0)},
			},
			"First",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(t, &fakeProvider{listings: tt.listings})
			result, err := s.Compare(context.Background(), models.ComparisonRequest{
				ProductName:     "Widget",
				CurrentPrice:    100,
				CurrentPlatform: "Shop",
			})
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if result.BestDeal.Platform != tt.want {
				t.Errorf("best deal = %q, want %q", result.BestDeal.Platform, tt.want)
			}
		})
	}
}

func TestRepeatRequestFlaggedInFilter(t *testing.T) {
	s := newService(t, &fakeProvider{})

	req := models.ComparisonRequest{
		ProductName:     "Mechanical Keyboard",
		CurrentPrice:    120,
		CurrentPlatform: "Shop",
	}

	if s.MightBeRepeat(req.ProductName, req.CurrentPlatform) {
		t.Fatal("fresh service reports request as repeat")
	}

	if _, err := s.Compare(context.Background(), req); err != nil {
		t.Fatalf("first Compare failed: %v", err)
	}

	// No false negatives: the key must be found with certainty.
	if !s.MightBeRepeat(req.ProductName, req.CurrentPlatform) {
		t.Error("identical request not flagged as repeat after first comparison")
	}

	// The repeat hint never skips the search.
	if _, err := s.Compare(context.Background(), req); err != nil {
		t.Fatalf("second Compare failed: %v", err)
	}
}

func TestCompareFeedsProductIndex(t *testing.T) {
	s := newService(t, &fakeProvider{})

	if _, err := s.Compare(context.Background(), models.ComparisonRequest{
		ProductName:     "  USB-C   Hub ",
		CurrentPrice:    30,
		CurrentPlatform: "Shop",
	}); err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if !s.Index().Contains("usb-c hub") {
		t.Error("product name missing from index after comparison")
	}
	matches := s.Index().PrefixMatches("usb", 5)
	if len(matches) != 1 || matches[0] != "usb-c hub" {
		t.Errorf("PrefixMatches = %v, want [usb-c hub]", matches)
	}
}

func TestCompareBulkDropsFailedItems(t *testing.T) {
	s := newService(t, &fakeProvider{
		listings: []models.Listing{
			{Platform: "Amazon", Price: 10, InStock: true},
		},
	})

	reqs := make([]models.ComparisonRequest, 0, 10)
	for i := 0; i < 10; i++ {
		req := models.ComparisonRequest{
			ProductName:     fmt.Sprintf("item %d", i),
			CurrentPrice:    20,
			CurrentPlatform: "Shop",
		}
		if i%3 == 0 {
			req.ProductName = "" // intentionally invalid
		}
		reqs = append(reqs, req)
	}

	results := s.CompareBulk(context.Background(), reqs)

	// 10 requests, 4 invalid (0, 3, 6, 9).
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	for _, res := range results {
		if res.PotentialSavings < 0 {
			t.Errorf("result for %s has negative savings", res.CurrentPlatform.Platform)
		}
		if res.BestDeal.Price > res.CurrentPlatform.Price {
			t.Errorf("result violates best deal invariant: %+v", res)
		}
	}
}

func TestCompareBulkEmptyInput(t *testing.T) {
	s := newService(t, &fakeProvider{})
	if results := s.CompareBulk(context.Background(), nil); len(results) != 0 {
		t.Errorf("CompareBulk(nil) = %v, want empty", results)
	}
}

func TestFilterResetAtHighWater(t *testing.T) {
	opts := DefaultOptions()
	opts.ExpectedItems = 50
	opts.HighWaterMark = 0.4
	s, err := New(&fakeProvider{}, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Drive the tiny filter well past its high-water mark; Compare must keep
	// working and the filter must keep a sane load factor via resets.
	for i := 0; i < 500; i++ {
		if _, err := s.Compare(context.Background(), models.ComparisonRequest{
			ProductName:     fmt.Sprintf("unique product %d", i),
			CurrentPrice:    10,
			CurrentPlatform: "Shop",
		}); err != nil {
			t.Fatalf("Compare %d failed: %v", i, err)
		}
	}

	if lf := s.filter.Load().LoadFactor(); lf > 0.6 {
		t.Errorf("filter load factor %v after resets, want bounded", lf)
	}
}
