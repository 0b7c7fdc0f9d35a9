package models

import "errors"

var (
	// ErrInvalidRequest marks a client fault: the caller can fix the input and retry.
	ErrInvalidRequest = errors.New("invalid comparison request")
	// ErrSearchUnavailable marks a transient provider fault, safe for the caller to retry.
	ErrSearchUnavailable = errors.New("search provider unavailable")
)

type ComparisonRequest struct {
	ProductName     string  `json:"product_name"`
	CurrentPrice    float64 `json:"current_price"`
	CurrentPlatform string  `json:"current_platform"`
	ProductCategory string  `json:"product_category,omitempty"`
	UserID          string  `json:"user_id,omitempty"`
}

type PlatformPrice struct {
	Platform           string   `json:"platform"`
	Price              float64  `json:"price"`
	URL                string   `json:"url"`
	DiscountPercentage float64  `json:"discount_percentage"`
	Availability       bool     `json:"availability"`
	Rating             *float64 `json:"rating,omitempty"`
	DeliveryTime       string   `json:"delivery_time,omitempty"`
}

type ComparisonResult struct {
	CurrentPlatform  PlatformPrice   `json:"current_platform"`
	Alternatives     []PlatformPrice `json:"alternatives"`
	BestDeal         PlatformPrice   `json:"best_deal"`
	PotentialSavings float64         `json:"potential_savings"`
	Recommendations  []string        `json:"recommendations"`
}

type BulkComparisonRequest struct {
	Products []ComparisonRequest `json:"products"`
}

type BulkComparisonResult struct {
	Results []ComparisonResult `json:"results"`
}
