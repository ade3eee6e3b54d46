package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/sales-analytics-engine/salesstore"
)

var (
	// ErrNoActiveWebsite is returned when the catalog holds no active website.
	ErrNoActiveWebsite = errors.New("no active website available")

	// ErrNoEligibleProducts is returned when the chosen website has no eligible products.
	ErrNoEligibleProducts = errors.New("no eligible products available")
)

const (
	logMsgSaleGenerated      = "sale generated"
	logMsgSaleSkipped        = "sale attempt skipped"
	logMsgSaleFailed         = "sale attempt failed"
	logMsgBatchStarted       = "generation batch started"
	logMsgBatchFinished      = "generation batch finished"
	logMsgBatchInterrupted   = "generation batch interrupted"
	logAttrError             = "error"
	logAttrBatchID           = "batch_id"
	logAttrSaleID            = "sale_id"
	logAttrWebsite           = "website"
	logAttrTotalAmount       = "total_amount"
	logAttrPaymentMethod     = "payment_method"
	logAttrItemCount         = "item_count"
	logAttrTargetCount       = "target_count"
	logAttrGeneratedCount    = "generated_count"
	logAttrBucket            = "bucket"
	logAttrDemandMultiplier  = "demand_multiplier"
	logAttrAttemptsRemaining = "attempts_remaining"
)

// Logger interface for generation progress and failure reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SaleWriter persists one sale atomically. It is implemented by *salesstore.Store.
type SaleWriter interface {
	InsertSale(ctx context.Context, sale salesstore.NewSale) (int64, error)
}

// Generator fabricates sales from the pattern model and the catalog snapshot
// and persists them through the sale writer. It never mutates the catalog:
// stock figures stay as cached until the next reload, and the storage layer's
// zero floor covers any staleness.
type Generator struct {
	patterns *Patterns
	catalog  *Catalog
	writer   SaleWriter
	taxRate  float64
	logger   Logger
	now      func() time.Time
}

// NewGenerator creates a sale generator. The tax rate is a fraction
// (0.17 for 17%).
func NewGenerator(patterns *Patterns, catalog *Catalog, writer SaleWriter, taxRate float64, logger Logger) *Generator {
	return &Generator{
		patterns: patterns,
		catalog:  catalog,
		writer:   writer,
		taxRate:  taxRate,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateOne fabricates and persists a single sale and returns its id.
//
// Selection failures (ErrNoActiveWebsite, ErrNoEligibleProducts) abort before
// any write happens. A persistence failure rolls back inside the writer; in
// both cases the catalog snapshot is left untouched.
func (g *Generator) GenerateOne(ctx context.Context) (int64, error) {
	now := g.now()

	website, ok := g.catalog.RandomWebsite()
	if !ok {
		return 0, ErrNoActiveWebsite
	}

	var shopID *int64
	if shop, hasShop := g.catalog.RandomShopFor(website.ID); hasShop {
		shopID = &shop.ID
	}

	itemCount := g.patterns.ItemsPerSale(now)
	products := g.catalog.SampleProductsFor(website.ID, itemCount)
	if len(products) == 0 {
		return 0, fmt.Errorf("%w: website %q", ErrNoEligibleProducts, website.Name)
	}

	var customerID *int64
	if g.patterns.ShouldAttachCustomer() {
		if customer, hasCustomer := g.catalog.RandomCustomer(); hasCustomer {
			customerID = &customer.ID
		}
	}

	items, subtotal := g.buildLineItems(products)

	taxAmount := salesstore.Round2(subtotal * g.taxRate)
	totalAmount := subtotal + taxAmount

	sale := salesstore.NewSale{
		WebsiteID:     website.ID,
		ShopID:        shopID,
		CustomerID:    customerID,
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		TotalAmount:   totalAmount,
		PaymentMethod: g.patterns.PaymentMethod(),
		Items:         items,
	}

	// Shutdown takes effect between attempts, never inside one: a sale whose
	// transaction has started is allowed to finish even if ctx is canceled.
	saleID, err := g.writer.InsertSale(context.WithoutCancel(ctx), sale)
	if err != nil {
		return 0, err
	}

	if g.logger != nil {
		g.logger.Info(logMsgSaleGenerated,
			logAttrSaleID, saleID,
			logAttrWebsite, website.Name,
			logAttrTotalAmount, salesstore.Round2(totalAmount),
			logAttrPaymentMethod, sale.PaymentMethod,
			logAttrItemCount, len(items))
	}

	return saleID, nil
}

// buildLineItems turns the sampled products into sale items, clamping each
// drawn quantity to the stock cached at selection time (floored at one) and
// snapshotting name and unit price.
func (g *Generator) buildLineItems(products []salesstore.Product) ([]salesstore.SaleItem, float64) {
	items := make([]salesstore.SaleItem, 0, len(products))
	subtotal := 0.0

	for _, product := range products {
		quantity := g.patterns.QuantityForLineItem()
		if quantity > product.StockQuantity {
			quantity = product.StockQuantity
			if quantity < 1 {
				quantity = 1
			}
		}

		lineTotal := float64(quantity) * product.UnitPrice
		items = append(items, salesstore.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
			UnitPrice:   product.UnitPrice,
			LineTotal:   lineTotal,
		})

		subtotal += lineTotal
	}

	return items, subtotal
}

// GenerateBatch decides how many sales the current interval deserves and
// generates them sequentially. Individual failures are logged and counted as
// non-generated; the batch itself always completes its attempts unless the
// context is canceled between attempts. It returns the number of sales
// actually generated.
func (g *Generator) GenerateBatch(ctx context.Context) int {
	now := g.now()
	target := g.patterns.SalesCountForInterval(now)
	batchID := uuid.New().String()

	if g.logger != nil {
		g.logger.Info(logMsgBatchStarted,
			logAttrBatchID, batchID,
			logAttrTargetCount, target,
			logAttrBucket, string(g.patterns.TimeOfDayBucket(now)),
			logAttrDemandMultiplier, g.patterns.DemandMultiplier(now))
	}

	generated := 0
	for attempt := 0; attempt < target; attempt++ {
		if ctx.Err() != nil {
			if g.logger != nil {
				g.logger.Warn(logMsgBatchInterrupted,
					logAttrBatchID, batchID,
					logAttrAttemptsRemaining, target-attempt)
			}
			break
		}

		if _, err := g.GenerateOne(ctx); err != nil {
			g.reportAttemptFailure(batchID, err)
			continue
		}

		generated++
	}

	if g.logger != nil {
		g.logger.Info(logMsgBatchFinished,
			logAttrBatchID, batchID,
			logAttrGeneratedCount, generated,
			logAttrTargetCount, target)
	}

	return generated
}

// reportAttemptFailure logs expected empty-selection failures at warning
// level and persistence failures at error level; neither escalates.
func (g *Generator) reportAttemptFailure(batchID string, err error) {
	if g.logger == nil {
		return
	}

	if errors.Is(err, ErrNoActiveWebsite) || errors.Is(err, ErrNoEligibleProducts) {
		g.logger.Warn(logMsgSaleSkipped, logAttrBatchID, batchID, logAttrError, err.Error())
		return
	}

	g.logger.Error(logMsgSaleFailed, logAttrBatchID, batchID, logAttrError, err.Error())
}
