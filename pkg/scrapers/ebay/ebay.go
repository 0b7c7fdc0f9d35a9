package ebay

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"compare-base/pkg/models"

	"github.com/gocolly/colly/v2"
)

const (
	Platform = "eBay"
	BaseURL  = "https://www.ebay.com/sch/i.html?_nkw="
)

type Scraper struct {
	Collector *colly.Collector
	BaseURL   string
}

func NewScraper() *Scraper {
	c := colly.NewCollector(
		colly.AllowedDomains("www.ebay.com"),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	return &Scraper{
		Collector: c,
		BaseURL:   BaseURL,
	}
}

func (s *Scraper) Platform() string { return Platform }

// Search returns the first organic result for the query.
func (s *Scraper) Search(ctx context.Context, query string) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clone per search: callbacks registered below must not accumulate on
	// the shared collector across requests.
	c := s.Collector.Clone()
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	listing := &models.Listing{
		Platform:  Platform,
		ScrapedAt: time.Now(),
	}
	found := false

	c.OnHTML("li.s-item", func(e *colly.HTMLElement) {
		if found {
			return
		}

		title := strings.TrimSpace(e.ChildText(".s-item__title"))
		// eBay injects a placeholder card at the top of the list
		if title == "" || strings.EqualFold(title, "Shop on eBay") {
			return
		}

		priceStr := e.ChildText(".s-item__price")
		price, err := ParsePrice(priceStr)
		if err != nil {
			return
		}

		listing.Price = price
		listing.URL = e.ChildAttr(".s-item__link", "href")
		listing.InStock = true

		if ratingStr := e.ChildText(".x-star-rating .clipped"); ratingStr != "" {
			// "4.5 out of 5 stars"
			fields := strings.Fields(ratingStr)
			if len(fields) > 0 {
				if val, err := strconv.ParseFloat(fields[0], 64); err == nil {
					listing.Rating = &val
				}
			}
		}

		if delivery := strings.TrimSpace(e.ChildText(".s-item__shipping")); delivery != "" {
			listing.EstimatedDelivery = delivery
		}

		found = true
	})

	err := c.Visit(s.BaseURL + url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("no results for %q on %s", query, Platform)
	}

	return listing, nil
}

// ParsePrice handles eBay price text like "$999.99" or "$899.99 to $1,099.99"
// (the low end of a range is used).
func ParsePrice(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, " to "); idx >= 0 {
		text = text[:idx]
	}
	text = strings.ReplaceAll(text, "$", "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)
	return strconv.ParseFloat(text, 64)
}
