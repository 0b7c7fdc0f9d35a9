package walmart

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"compare-base/pkg/logger"
	"compare-base/pkg/models"

	"github.com/chromedp/chromedp"
)

const (
	Platform = "Walmart"
	BaseURL  = "https://www.walmart.com/search?q="
)

var log = logger.New("walmart")

// Scraper drives a headless browser; Walmart's search results are rendered
// client-side.
type Scraper struct {
	BaseURL string
}

func NewScraper() *Scraper {
	return &Scraper{BaseURL: BaseURL}
}

func (s *Scraper) Platform() string { return Platform }

func (s *Scraper) Search(ctx context.Context, query string) (*models.Listing, error) {
	listing := &models.Listing{
		Platform:  Platform,
		ScrapedAt: time.Now(),
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	scrapeCtx, cancelScrape := context.WithTimeout(browserCtx, 60*time.Second)
	defer cancelScrape()

	searchURL := s.BaseURL + url.QueryEscape(query)
	log.Debugf("navigating to %s", searchURL)

	var priceStr, ratingStr, link, delivery string

	err := chromedp.Run(scrapeCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady(`[data-item-id]`, chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector("[data-item-id] [data-automation-id='product-price'] .w_iUH7")?.innerText || ""`, &priceStr),
		chromedp.Evaluate(`document.querySelector("[data-item-id] [data-testid='product-ratings']")?.getAttribute("data-value") || ""`, &ratingStr),
		chromedp.Evaluate(`document.querySelector("[data-item-id] a[link-identifier]")?.href || ""`, &link),
		chromedp.Evaluate(`document.querySelector("[data-item-id] [data-automation-id='fulfillment-badge']")?.innerText || ""`, &delivery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp failed: %w", err)
	}

	// "current price $999.99"
	priceStr = strings.TrimSpace(priceStr)
	if idx := strings.Index(priceStr, "$"); idx >= 0 {
		priceStr = priceStr[idx+1:]
	}
	priceStr = strings.ReplaceAll(priceStr, ",", "")
	price, err := strconv.ParseFloat(strings.TrimSpace(priceStr), 64)
	if err != nil {
		return nil, fmt.Errorf("no parseable price for %q on %s", query, Platform)
	}

	listing.Price = price
	listing.URL = link
	listing.InStock = true

	if val, err := strconv.ParseFloat(strings.TrimSpace(ratingStr), 64); err == nil {
		listing.Rating = &val
	}
	if delivery = strings.TrimSpace(delivery); delivery != "" {
		listing.EstimatedDelivery = strings.ReplaceAll(delivery, "\n", " ")
	}

	return listing, nil
}
