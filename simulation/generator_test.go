package simulation_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storeops/sales-analytics-engine/salesstore"
	"github.com/storeops/sales-analytics-engine/simulation"
)

type fakeSaleWriter struct {
	sales  []salesstore.NewSale
	err    error
	nextID int64
}

func (w *fakeSaleWriter) InsertSale(_ context.Context, sale salesstore.NewSale) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}

	w.sales = append(w.sales, sale)
	w.nextID++

	return w.nextID, nil
}

// singleProductCatalog holds one website with one product so every sale is
// fully determined regardless of random draws.
func singleProductCatalog(price float64, stock int) salesstore.Catalog {
	return salesstore.Catalog{
		Websites: []salesstore.Website{{ID: 1, Name: "TechBazaar"}},
		Products: map[int64][]salesstore.Product{
			1: {{ID: 100, Name: "Wireless Mouse", UnitPrice: price, StockQuantity: stock}},
		},
	}
}

func newLoadedCatalog(t *testing.T, data salesstore.Catalog, seed int64) *simulation.Catalog {
	t.Helper()

	loader := &fakeCatalogLoader{catalog: data}
	catalog := simulation.NewCatalog(loader, rand.New(rand.NewSource(seed)))
	assert.NoError(t, catalog.Reload(context.Background()))

	return catalog
}

func newTestGenerator(catalog *simulation.Catalog, writer simulation.SaleWriter, attachRate float64, seed int64) *simulation.Generator {
	cfg := simulation.DefaultPatternConfig()
	cfg.CustomerAttachRate = attachRate

	patterns := simulation.NewPatterns(cfg, rand.New(rand.NewSource(seed)))
	generator := simulation.NewGenerator(patterns, catalog, writer, 0.17, nil)
	generator.SetNowFunc(func() time.Time {
		return time.Date(2026, time.January, 7, 14, 0, 0, 0, time.UTC)
	})

	return generator
}

func Test_GenerateOne_ComputesTaxAndTotal(t *testing.T) {
	// One product with stock 1: the drawn quantity always clamps to 1,
	// so subtotal is exactly the unit price.
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 1), 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	saleID, err := generator.GenerateOne(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(1), saleID)
	assert.Len(t, writer.sales, 1)

	sale := writer.sales[0]
	assert.Equal(t, int64(1), sale.WebsiteID)
	assert.Nil(t, sale.ShopID)
	assert.Nil(t, sale.CustomerID)
	assert.InDelta(t, 100.0, sale.Subtotal, 0.0001)
	assert.InDelta(t, 17.0, sale.TaxAmount, 0.0001)
	assert.InDelta(t, 117.0, sale.TotalAmount, 0.0001)

	assert.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, int64(100), item.ProductID)
	assert.Equal(t, "Wireless Mouse", item.ProductName)
	assert.Equal(t, 1, item.Quantity)
	assert.InDelta(t, 100.0, item.UnitPrice, 0.0001)
	assert.InDelta(t, 100.0, item.LineTotal, 0.0001)
}

func Test_GenerateOne_ClampsQuantityToCachedStock(t *testing.T) {
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 2), 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	for i := 0; i < 200; i++ {
		_, err := generator.GenerateOne(context.Background())
		assert.NoError(t, err)
	}

	for _, sale := range writer.sales {
		for _, item := range sale.Items {
			assert.LessOrEqual(t, item.Quantity, 2)
			assert.GreaterOrEqual(t, item.Quantity, 1)
			assert.InDelta(t, float64(item.Quantity)*item.UnitPrice, item.LineTotal, 0.0001)
		}
	}
}

func Test_GenerateOne_When_CachedStockIsStale_FloorsQuantityAtOne(t *testing.T) {
	// Stock zero only happens when the cache is stale; the sale still
	// carries one unit and the storage layer floors real stock at zero.
	catalog := newLoadedCatalog(t, singleProductCatalog(50, 0), 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	_, err := generator.GenerateOne(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, writer.sales[0].Items[0].Quantity)
}

// multiProductCatalog holds one website with shops, several products, and
// customers so every generation attempt can succeed.
func multiProductCatalog() salesstore.Catalog {
	return salesstore.Catalog{
		Websites: []salesstore.Website{{ID: 1, Name: "TechBazaar"}},
		Shops: []salesstore.Shop{
			{ID: 10, WebsiteID: 1, Name: "Lahore Flagship"},
		},
		Products: map[int64][]salesstore.Product{
			1: {
				{ID: 100, Name: "Wireless Mouse", UnitPrice: 1500, StockQuantity: 40},
				{ID: 101, Name: "USB-C Cable", UnitPrice: 450, StockQuantity: 120},
				{ID: 102, Name: "Laptop Stand", UnitPrice: 3200, StockQuantity: 15},
			},
		},
		Customers: []salesstore.Customer{{ID: 500}, {ID: 501}},
	}
}

func Test_GenerateOne_SubtotalEqualsSumOfLineTotals(t *testing.T) {
	catalog := newLoadedCatalog(t, multiProductCatalog(), 3)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0.5, 3)

	for i := 0; i < 200; i++ {
		_, err := generator.GenerateOne(context.Background())
		assert.NoError(t, err)
	}

	for _, sale := range writer.sales {
		sum := 0.0
		for _, item := range sale.Items {
			sum += item.LineTotal
		}

		assert.InDelta(t, sum, sale.Subtotal, 0.0001)
		assert.InDelta(t, salesstore.Round2(sale.Subtotal*0.17), sale.TaxAmount, 0.0001)
		assert.InDelta(t, sale.Subtotal+sale.TaxAmount, sale.TotalAmount, 0.0001)
	}
}

func Test_GenerateOne_AttachesCustomerPerConfiguredRate(t *testing.T) {
	catalog := newLoadedCatalog(t, multiProductCatalog(), 3)
	writer := &fakeSaleWriter{}

	// Rate 1: every sale gets a customer.
	always := newTestGenerator(catalog, writer, 1.0, 3)
	_, err := always.GenerateOne(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, writer.sales[0].CustomerID)

	// Rate 0: never.
	never := newTestGenerator(catalog, writer, 0.0, 3)
	_, err = never.GenerateOne(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, writer.sales[1].CustomerID)
}

func Test_GenerateOne_When_NoWebsite_ReturnsSentinelWithoutWriting(t *testing.T) {
	catalog := newLoadedCatalog(t, salesstore.Catalog{}, 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	_, err := generator.GenerateOne(context.Background())

	assert.ErrorIs(t, err, simulation.ErrNoActiveWebsite)
	assert.Empty(t, writer.sales)
}

func Test_GenerateOne_When_WebsiteHasNoProducts_ReturnsSentinelWithoutWriting(t *testing.T) {
	data := salesstore.Catalog{
		Websites: []salesstore.Website{{ID: 2, Name: "StyleHub"}},
	}
	catalog := newLoadedCatalog(t, data, 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	_, err := generator.GenerateOne(context.Background())

	assert.ErrorIs(t, err, simulation.ErrNoEligibleProducts)
	assert.Contains(t, err.Error(), "StyleHub")
	assert.Empty(t, writer.sales)
}

func Test_GenerateBatch_CountsOnlyPersistedSales(t *testing.T) {
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 5), 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 42)

	generated := generator.GenerateBatch(context.Background())

	// Afternoon weekday: multiplier 1.5, bounds [1, 7].
	assert.GreaterOrEqual(t, generated, 1)
	assert.LessOrEqual(t, generated, 7)
	assert.Len(t, writer.sales, generated)
}

// countingSaleWriter fails the configured attempt numbers and persists the rest.
type countingSaleWriter struct {
	attempts int
	failAt   map[int]bool
	sales    []salesstore.NewSale
}

func (w *countingSaleWriter) InsertSale(_ context.Context, sale salesstore.NewSale) (int64, error) {
	w.attempts++
	if w.failAt[w.attempts] {
		return 0, errors.New("insert failed")
	}

	w.sales = append(w.sales, sale)

	return int64(len(w.sales)), nil
}

func Test_GenerateBatch_With_FixedTargetOfFive_AndTwoFailures_ReturnsThree(t *testing.T) {
	// Flat multipliers and a degenerate base range force the target to
	// exactly five sales.
	cfg := simulation.DefaultPatternConfig()
	cfg.SalesPerIntervalMin = 5
	cfg.SalesPerIntervalMax = 5
	cfg.WeekendMultiplier = 1.0
	for bucket := range cfg.PeakMultipliers {
		cfg.PeakMultipliers[bucket] = 1.0
	}
	cfg.CustomerAttachRate = 0

	patterns := simulation.NewPatterns(cfg, rand.New(rand.NewSource(1)))
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 5), 1)
	writer := &countingSaleWriter{failAt: map[int]bool{2: true, 4: true}}

	generator := simulation.NewGenerator(patterns, catalog, writer, 0.17, nil)
	generator.SetNowFunc(func() time.Time {
		return time.Date(2026, time.January, 7, 14, 0, 0, 0, time.UTC)
	})

	generated := generator.GenerateBatch(context.Background())

	assert.Equal(t, 3, generated)
	assert.Equal(t, 5, writer.attempts)
	assert.Len(t, writer.sales, 3)
}

func Test_GenerateBatch_When_EveryAttemptFails_ReturnsZero(t *testing.T) {
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 5), 1)
	writer := &fakeSaleWriter{err: errors.New("insert failed")}
	generator := newTestGenerator(catalog, writer, 0, 42)

	generated := generator.GenerateBatch(context.Background())

	assert.Zero(t, generated)
	assert.Empty(t, writer.sales)
}

// ctxObservingWriter records the cancellation state of the context it is
// handed at insert time.
type ctxObservingWriter struct {
	insertCtxErr error
	calls        int
}

func (w *ctxObservingWriter) InsertSale(ctx context.Context, _ salesstore.NewSale) (int64, error) {
	w.calls++
	w.insertCtxErr = ctx.Err()

	return 1, nil
}

func Test_GenerateOne_When_ShutdownArrivesMidAttempt_LetsTheWriteFinish(t *testing.T) {
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 5), 1)
	writer := &ctxObservingWriter{}
	generator := newTestGenerator(catalog, writer, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saleID, err := generator.GenerateOne(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), saleID)
	assert.Equal(t, 1, writer.calls)
	assert.NoError(t, writer.insertCtxErr, "the persistence context must not carry the shutdown cancellation")
}

func Test_GenerateBatch_When_ContextCanceled_StopsEarly(t *testing.T) {
	catalog := newLoadedCatalog(t, singleProductCatalog(100, 5), 1)
	writer := &fakeSaleWriter{}
	generator := newTestGenerator(catalog, writer, 0, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	generated := generator.GenerateBatch(ctx)

	assert.Zero(t, generated)
	assert.Empty(t, writer.sales)
}
