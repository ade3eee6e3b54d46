package analytics

import (
	"context"
	"errors"

	"github.com/storeops/sales-analytics-engine/salesstore"
)

// ErrAggregationFailed is returned when an aggregation upsert cannot be executed.
var ErrAggregationFailed = errors.New("aggregation failed")

const (
	logMsgHourlyAggregated = "hourly stats aggregated"
	logMsgDailyAggregated  = "daily stats aggregated"
	logMsgAggregateFailed  = "failed to aggregate stats"
	logAttrError           = "error"
	logAttrRowsAffected    = "rows_affected"
	logAttrGranularity     = "granularity"
)

// The upserts recompute the current day from the raw sales rows, so re-running
// them is idempotent for a given hour/day.
const hourlyUpsertSQL = `
INSERT INTO sales_hourly_stats (
    website_id, shop_id, stat_date, stat_hour,
    total_sales, total_revenue, total_items_sold, average_order_value
)
SELECT
    s.website_id,
    s.shop_id,
    s.sale_date::DATE AS stat_date,
    EXTRACT(HOUR FROM s.sale_date)::INTEGER AS stat_hour,
    COUNT(*)::INTEGER AS total_sales,
    SUM(s.total_amount) AS total_revenue,
    COALESCE(SUM(si.quantity), 0)::INTEGER AS total_items_sold,
    AVG(s.total_amount) AS average_order_value
FROM sales s
LEFT JOIN sale_items si ON s.id = si.sale_id
WHERE s.sale_date::DATE = CURRENT_DATE
GROUP BY s.website_id, s.shop_id, s.sale_date::DATE, EXTRACT(HOUR FROM s.sale_date)
ON CONFLICT (website_id, shop_id, stat_date, stat_hour)
DO UPDATE SET
    total_sales = EXCLUDED.total_sales,
    total_revenue = EXCLUDED.total_revenue,
    total_items_sold = EXCLUDED.total_items_sold,
    average_order_value = EXCLUDED.average_order_value,
    updated_at = CURRENT_TIMESTAMP`

const dailyUpsertSQL = `
INSERT INTO sales_daily_stats (
    website_id, stat_date,
    total_sales, total_revenue, total_items_sold,
    unique_customers, average_order_value
)
SELECT
    s.website_id,
    s.sale_date::DATE AS stat_date,
    COUNT(*)::INTEGER AS total_sales,
    SUM(s.total_amount) AS total_revenue,
    COALESCE(SUM(si.quantity), 0)::INTEGER AS total_items_sold,
    COUNT(DISTINCT s.customer_id)::INTEGER AS unique_customers,
    AVG(s.total_amount) AS average_order_value
FROM sales s
LEFT JOIN sale_items si ON s.id = si.sale_id
WHERE s.sale_date::DATE = CURRENT_DATE
GROUP BY s.website_id, s.sale_date::DATE
ON CONFLICT (website_id, stat_date)
DO UPDATE SET
    total_sales = EXCLUDED.total_sales,
    total_revenue = EXCLUDED.total_revenue,
    total_items_sold = EXCLUDED.total_items_sold,
    unique_customers = EXCLUDED.unique_customers,
    average_order_value = EXCLUDED.average_order_value,
    updated_at = CURRENT_TIMESTAMP`

// Logger interface for aggregation progress and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the slice of the sales store the analytics package needs.
type Store interface {
	Exec(ctx context.Context, query string) (int64, error)
	Query(ctx context.Context, query string) (salesstore.Rows, error)
}

// Aggregator runs the hourly and daily rollup upserts.
type Aggregator struct {
	db     Store
	logger Logger
}

// NewAggregator creates an aggregator on the given store.
func NewAggregator(db Store, logger Logger) *Aggregator {
	return &Aggregator{db: db, logger: logger}
}

// AggregateHourly upserts today's per-hour rollups.
func (a *Aggregator) AggregateHourly(ctx context.Context) error {
	return a.runUpsert(ctx, hourlyUpsertSQL, "hourly", logMsgHourlyAggregated)
}

// AggregateDaily upserts today's per-website daily rollups.
func (a *Aggregator) AggregateDaily(ctx context.Context) error {
	return a.runUpsert(ctx, dailyUpsertSQL, "daily", logMsgDailyAggregated)
}

// Run executes both rollups; the first failure aborts the pass.
func (a *Aggregator) Run(ctx context.Context) error {
	if err := a.AggregateHourly(ctx); err != nil {
		return err
	}

	return a.AggregateDaily(ctx)
}

func (a *Aggregator) runUpsert(ctx context.Context, sqlQuery string, granularity string, successMsg string) error {
	rowsAffected, err := a.db.Exec(ctx, sqlQuery)
	if err != nil {
		if a.logger != nil {
			a.logger.Error(logMsgAggregateFailed, logAttrGranularity, granularity, logAttrError, err.Error())
		}
		return errors.Join(ErrAggregationFailed, err)
	}

	if a.logger != nil {
		a.logger.Info(successMsg, logAttrRowsAffected, rowsAffected)
	}

	return nil
}
