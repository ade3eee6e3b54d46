package simulation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/storeops/sales-analytics-engine/salesstore"
)

// CatalogLoader fetches a full catalog snapshot from the external store.
// It is implemented by *salesstore.Store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (salesstore.Catalog, error)
}

// Catalog is the in-memory, periodically refreshed snapshot of reference
// entities used by the generator to avoid per-sale round trips to the store.
// A reload replaces the whole snapshot atomically: concurrent readers see
// either the old snapshot or the fully new one, never a mix.
type Catalog struct {
	// mu guards both the snapshot and the rng.
	mu       sync.Mutex
	loader   CatalogLoader
	rng      *rand.Rand
	snap     salesstore.Catalog
	loadedAt time.Time
}

// CatalogStats summarizes the current snapshot for logging.
type CatalogStats struct {
	Websites  int
	Shops     int
	Products  int
	Customers int
	LoadedAt  time.Time
}

// NewCatalog creates an empty catalog; call Reload before generating.
// A nil rng falls back to a time-seeded source.
func NewCatalog(loader CatalogLoader, rng *rand.Rand) *Catalog {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // weak random is fine for catalog sampling
	}

	return &Catalog{loader: loader, rng: rng}
}

// Reload fetches a fresh snapshot and swaps it in. On failure the previous
// snapshot stays in place and the error is returned to the caller; a stale
// catalog beats an empty one.
func (c *Catalog) Reload(ctx context.Context) error {
	snapshot, err := c.loader.LoadCatalog(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.snap = snapshot
	c.loadedAt = time.Now()
	c.mu.Unlock()

	return nil
}

// RandomWebsite returns a uniformly chosen active website, or false if the
// snapshot holds none.
func (c *Catalog) RandomWebsite() (salesstore.Website, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.snap.Websites) == 0 {
		return salesstore.Website{}, false
	}

	return c.snap.Websites[c.rng.Intn(len(c.snap.Websites))], true
}

// RandomShopFor returns a uniformly chosen shop belonging to the website,
// or false if the website has no shops. A sale without a shop is valid.
func (c *Catalog) RandomShopFor(websiteID int64) (salesstore.Shop, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matching := make([]salesstore.Shop, 0, 4)
	for _, shop := range c.snap.Shops {
		if shop.WebsiteID == websiteID {
			matching = append(matching, shop)
		}
	}

	if len(matching) == 0 {
		return salesstore.Shop{}, false
	}

	return matching[c.rng.Intn(len(matching))], true
}

// SampleProductsFor samples up to count distinct products without
// replacement, uniformly, from the website's eligible products. It returns
// an empty slice when the website has none.
func (c *Catalog) SampleProductsFor(websiteID int64, count int) []salesstore.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.snap.Products[websiteID]
	if len(available) == 0 || count <= 0 {
		return nil
	}

	if count > len(available) {
		count = len(available)
	}

	sampled := make([]salesstore.Product, 0, count)
	for _, index := range c.rng.Perm(len(available))[:count] {
		sampled = append(sampled, available[index])
	}

	return sampled
}

// RandomCustomer returns a uniformly chosen customer, or false if none are cached.
func (c *Catalog) RandomCustomer() (salesstore.Customer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.snap.Customers) == 0 {
		return salesstore.Customer{}, false
	}

	return c.snap.Customers[c.rng.Intn(len(c.snap.Customers))], true
}

// Stats returns snapshot counts for logging.
func (c *Catalog) Stats() CatalogStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	productCount := 0
	for _, products := range c.snap.Products {
		productCount += len(products)
	}

	return CatalogStats{
		Websites:  len(c.snap.Websites),
		Shops:     len(c.snap.Shops),
		Products:  productCount,
		Customers: len(c.snap.Customers),
		LoadedAt:  c.loadedAt,
	}
}
