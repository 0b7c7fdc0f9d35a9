package newegg

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
	Platform = "Newegg"
	BaseURL  = "https://www.newegg.com/p/pl?d="
)

type Scraper struct {
	Collector *colly.Collector
	BaseURL   string
}

func NewScraper() *Scraper {
	c := colly.NewCollector(
		colly.AllowedDomains("www.newegg.com"),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	return &Scraper{
		Collector: c,
		BaseURL:   BaseURL,
	}
}

func (s *Scraper) Platform() string { return Platform }

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

	c.OnHTML(".item-cell", func(e *colly.HTMLElement) {
		if found {
			return
		}

		title := strings.TrimSpace(e.ChildText(".item-title"))
		if title == "" {
			return
		}

		// Price is split across elements: <strong>999</strong><sup>.99</sup>
		whole := strings.ReplaceAll(e.ChildText(".price-current strong"), ",", "")
		frac := e.ChildText(".price-current sup")
		if whole == "" {
			return
		}
		price, err := strconv.ParseFloat(whole+frac, 64)
		if err != nil {
			return
		}

		listing.Price = price
		listing.URL = e.ChildAttr(".item-title", "href")
		listing.InStock = !strings.Contains(e.ChildText(".item-promo"), "OUT OF STOCK")

		if ratingTitle := e.ChildAttr(".item-rating", "title"); ratingTitle != "" {
			// "Rating + 4.5"
			fields := strings.Fields(ratingTitle)
			if len(fields) > 0 {
				if val, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
					listing.Rating = &val
				}
			}
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
