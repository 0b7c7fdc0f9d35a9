package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"compare-base/pkg/api"
	"compare-base/pkg/cache"
	"compare-base/pkg/compare"
	"compare-base/pkg/config"
	"compare-base/pkg/logger"
	"compare-base/pkg/models"
	"compare-base/pkg/scrapers/ebay"
	"compare-base/pkg/scrapers/newegg"
	"compare-base/pkg/scrapers/walmart"
	"compare-base/pkg/search"

	scalargo "github.com/bdpiprava/scalar-go"
	"golang.org/x/time/rate"
)

var (
	log        = logger.New("server")
	comparison *compare.Service
)

func main() {
	cfg := config.Default()
	cfg.LoadFromEnv()

	listingCache, err := cache.New(cfg.CacheDBPath, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
	defer listingCache.Close()
	log.Infof("cache initialized at %s with TTL %d minutes", cfg.CacheDBPath, cfg.CacheTTLMinutes)

	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	provider := search.NewCached(
		search.NewMulti(limiter,
			ebay.NewScraper(),
			newegg.NewScraper(),
			walmart.NewScraper(),
		),
		listingCache,
	)

	comparison, err = compare.New(provider, compare.Options{
		ExpectedItems:     cfg.BloomExpectedItems,
		FalsePositiveRate: cfg.BloomFPRate,
		HighWaterMark:     cfg.BloomHighWater,
		SearchTimeout:     time.Duration(cfg.SearchTimeoutSeconds) * time.Second,
		BulkConcurrency:   cfg.BulkConcurrency,
	})
	if err != nil {
		log.Fatalf("failed to initialize comparison engine: %v", err)
	}

	http.HandleFunc("/", rootHandler)
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/compare", compareHandler)
	http.HandleFunc("/bulk-compare", bulkCompareHandler)
	http.HandleFunc("/suggest", suggestHandler)
	http.HandleFunc("/compare/products", demoProductsHandler)
	http.HandleFunc("/compare/prices", demoPricesHandler)
	http.HandleFunc("/compare/vendors", demoVendorsHandler)

	if ip := GetOutboundIP(); ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), cfg.Port)
	}
	fmt.Printf("Access URL: http://localhost:%s\n", cfg.Port)
	fmt.Printf("API Docs: http://localhost:%s/\n", cfg.Port)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           nil,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		api.WriteNotFound(w, "Unknown route", r.URL.Path)
		return
	}

	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Price Comparison API"),
		),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, map[string]any{
		"status":  "healthy",
		"service": "comparison-service",
		"features": []string{
			"price_comparison",
			"vendor_comparison",
			"bulk_comparison",
			"product_suggestions",
		},
	})
}

func compareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteBadRequest(w, "Method not allowed. Use POST.", r.URL.Path)
		return
	}

	var req models.ComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid JSON body.", r.URL.Path)
		return
	}
	defer r.Body.Close()

	result, err := comparison.Compare(r.Context(), req)
	if err != nil {
		writeCompareError(w, r, err)
		return
	}

	if err := api.WriteJSON(w, result); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeCompareError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		api.WriteBadRequest(w, err.Error(), r.URL.Path)
	case errors.Is(err, models.ErrSearchUnavailable):
		log.Errorf("search failed: %v", err)
		if compare.IsTimeout(err) {
			api.WriteGatewayTimeout(w, "Search provider timed out: "+err.Error(), r.URL.Path)
			return
		}
		api.WriteBadGateway(w, "Search provider unavailable: "+err.Error(), r.URL.Path)
	default:
		log.Errorf("comparison failed: %v", err)
		api.WriteInternalServerError(w, err, r.URL.Path)
	}
}

func bulkCompareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteBadRequest(w, "Method not allowed. Use POST.", r.URL.Path)
		return
	}

	var req models.BulkComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid JSON body. Expected {\"products\": [...]}.", r.URL.Path)
		return
	}
	defer r.Body.Close()

	// Per-item failures are dropped inside CompareBulk; the batch is always 200.
	results := comparison.CompareBulk(r.Context(), req.Products)

	if err := api.WriteJSON(w, models.BulkComparisonResult{Results: results}); err != nil {
		log.Errorf("failed to encode bulk response: %v", err)
	}
}

func suggestHandler(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		api.WriteBadRequest(w, "Missing required query parameter: prefix", r.URL.Path)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	api.WriteJSON(w, map[string]any{
		"prefix":      prefix,
		"suggestions": comparison.Index().PrefixMatches(prefix, limit),
	})
}

func demoProductsHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, map[string]any{
		"comparisons": []map[string]any{
			{"product": "Laptop", "vendor": "Amazon", "price": 999.99, "rating": 4.5},
			{"product": "Laptop", "vendor": "Best Buy", "price": 1099.99, "rating": 4.3},
		},
		"service": "comparison-service",
	})
}

func demoPricesHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, map[string]any{
		"price_comparison": map[string]any{
			"lowest":  999.99,
			"highest": 1299.99,
			"average": 1149.99,
			"vendors": 5,
		},
		"service": "comparison-service",
	})
}

func demoVendorsHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, map[string]any{
		"vendor_comparison": []map[string]any{
			{"vendor": "Amazon", "rating": 4.5, "delivery": "2 days", "price_rank": 1},
			{"vendor": "Best Buy", "rating": 4.3, "delivery": "3 days", "price_rank": 2},
		},
		"service": "comparison-service",
	})
}
