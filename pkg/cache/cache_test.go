package cache

import (
	"path/filepath"
	"testing"
	"time"

	"compare-base/pkg/models"
)

func rating(v float64) *float64 { return &v }

func TestSetGetRoundTrip(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "test.db"), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	listings := []models.Listing{
		{Platform: "eBay", Price: 42.50, URL: "https://ebay.com/x", InStock: true, Rating: rating(4.2)},
		{Platform: "Newegg", Price: 44.99, URL: "https://newegg.com/x", InStock: false},
	}

	c.Set("gaming laptop", listings)

	got, ok := c.Get("gaming laptop")
	if !ok {
		t.Fatal("Get returned miss for stored key")
	}
	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2", len(got))
	}
	if got[0].Platform != "eBay" || got[0].Price != 42.50 {
		t.Errorf("first listing = %+v", got[0])
	}
	if got[0].Rating == nil || *got[0].Rating != 4.2 {
		t.Errorf("rating not preserved: %+v", got[0].Rating)
	}
}

func TestGetMissingKey(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "test.db"), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("never stored"); ok {
		t.Error("Get returned hit for missing key")
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "test.db"), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	c.Set("laptop", []models.Listing{{Platform: "eBay", Price: 1}})
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("laptop"); ok {
		t.Error("Get returned hit for expired entry")
	}
}

func TestSetOverwrites(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "test.db"), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	c.Set("laptop", []models.Listing{{Platform: "eBay", Price: 100}})
	c.Set("laptop", []models.Listing{{Platform: "eBay", Price: 90}})

	got, ok := c.Get("laptop")
	if !ok || len(got) != 1 || got[0].Price != 90 {
		t.Errorf("Get after overwrite = %+v, %v", got, ok)
	}
}
