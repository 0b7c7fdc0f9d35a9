package models

import "time"

// Listing is one platform's answer for a product search: what the search
// provider hands back before comparison logic touches it.
type Listing struct {
	Platform          string    `json:"platform"`
	Price             float64   `json:"price"`
	URL               string    `json:"url"`
	InStock           bool      `json:"in_stock"`
	Rating            *float64  `json:"rating,omitempty"`
	EstimatedDelivery string    `json:"estimated_delivery,omitempty"`
	ScrapedAt         time.Time `json:"scraped_at"`
}
