package cache

import (
	"database/sql"
	"encoding/json"
	"time"

	"compare-base/pkg/logger"
	"compare-base/pkg/models"

	_ "modernc.org/sqlite"
)

var log = logger.New("cache")

// Cache stores search listings keyed by normalized product name with a TTL,
// so repeated comparisons of the same product skip outbound scraping.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			product_name TEXT NOT NULL PRIMARY KEY,
			data TEXT NOT NULL,
			searched_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Get(productName string) ([]models.Listing, bool) {
	var data string
	var searchedAt time.Time

	err := c.db.QueryRow(
		`SELECT data, searched_at FROM listings WHERE product_name = ?`,
		productName,
	).Scan(&data, &searchedAt)

	if err != nil {
		return nil, false
	}

	if time.Since(searchedAt) > c.ttl {
		return nil, false
	}

	var listings []models.Listing
	if err := json.Unmarshal([]byte(data), &listings); err != nil {
		log.Warnf("failed to unmarshal listings for %q: %v", productName, err)
		return nil, false
	}

	return listings, true
}

func (c *Cache) Set(productName string, listings []models.Listing) {
	data, err := json.Marshal(listings)
	if err != nil {
		log.Warnf("failed to marshal listings for %q: %v", productName, err)
		return
	}

	_, err = c.db.Exec(
		`INSERT INTO listings (product_name, data, searched_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(product_name)
		 DO UPDATE SET data = excluded.data, searched_at = excluded.searched_at`,
		productName, string(data), time.Now(),
	)
	if err != nil {
		log.Warnf("failed to store listings for %q: %v", productName, err)
	}
}

func (c *Cache) Close() error {
	return c.db.Close()
}
