package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ErrStatsQueryFailed is returned when a realtime stats query cannot be run.
var ErrStatsQueryFailed = errors.New("realtime stats query failed")

const (
	logMsgStatsPublished    = "realtime stats published"
	logMsgStatsPublishError = "failed to publish realtime stats"
	logAttrCacheKey         = "cache_key"
	logAttrSalesToday       = "sales_today"
	logAttrRevenueToday     = "revenue_today"

	// statsCacheKey is where the published snapshot lives in the cache.
	statsCacheKey = "analytics:current_stats"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const todayStatsSQL = `
SELECT
    COUNT(*) AS total_sales,
    COALESCE(SUM(total_amount), 0) AS total_revenue,
    COALESCE(AVG(total_amount), 0) AS avg_order_value
FROM sales
WHERE sale_date::DATE = CURRENT_DATE`

const lastHourStatsSQL = `
SELECT
    COUNT(*) AS sales,
    COALESCE(SUM(total_amount), 0) AS revenue
FROM sales
WHERE sale_date >= CURRENT_TIMESTAMP - INTERVAL '1 hour'`

const lastMinuteStatsSQL = `
SELECT
    COUNT(*) AS sales,
    COALESCE(SUM(total_amount), 0) AS revenue
FROM sales
WHERE sale_date >= CURRENT_TIMESTAMP - INTERVAL '1 minute'`

const websiteRankingsSQL = `
SELECT
    w.id,
    w.name,
    COUNT(s.id) AS total_sales,
    COALESCE(SUM(s.total_amount), 0) AS total_revenue,
    COALESCE(AVG(s.total_amount), 0) AS avg_order_value
FROM websites w
LEFT JOIN sales s ON w.id = s.website_id
    AND s.sale_date::DATE = CURRENT_DATE
WHERE w.is_active = true
GROUP BY w.id, w.name
ORDER BY total_revenue DESC`

const hourlyBreakdownSQL = `
SELECT
    EXTRACT(HOUR FROM sale_date)::INTEGER AS hour,
    COUNT(*) AS sales,
    COALESCE(SUM(total_amount), 0) AS revenue
FROM sales
WHERE sale_date::DATE = CURRENT_DATE
GROUP BY EXTRACT(HOUR FROM sale_date)
ORDER BY hour`

// topProductsSQLFormat takes the trailing window in days and the row limit.
// Both are plain ints validated by the caller, never user input.
const topProductsSQLFormat = `
SELECT
    p.id,
    p.sku,
    p.name,
    SUM(si.quantity) AS total_sold,
    SUM(si.line_total) AS total_revenue
FROM sale_items si
JOIN products p ON si.product_id = p.id
JOIN sales s ON si.sale_id = s.id
WHERE s.sale_date >= CURRENT_DATE - %d
GROUP BY p.id, p.sku, p.name
ORDER BY total_sold DESC
LIMIT %d`

const (
	defaultTopProductsLimit = 10
	defaultTopProductsDays  = 30
)

// TodayStats summarizes all sales recorded since midnight.
type TodayStats struct {
	TotalSales    int64   `json:"total_sales"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// WindowStats summarizes sales inside a trailing time window.
type WindowStats struct {
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// CurrentStats is the realtime snapshot published to the stats cache.
type CurrentStats struct {
	Today      TodayStats  `json:"today"`
	LastHour   WindowStats `json:"last_hour"`
	LastMinute WindowStats `json:"last_minute"`
	Timestamp  time.Time   `json:"timestamp"`
}

// WebsiteRanking is one row of the per-website performance ranking.
type WebsiteRanking struct {
	WebsiteID     int64   `json:"website_id"`
	Name          string  `json:"name"`
	TotalSales    int64   `json:"total_sales"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// TopProduct is one row of the best-seller ranking over a trailing window.
type TopProduct struct {
	ProductID    int64   `json:"product_id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	TotalSold    int64   `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

// HourlyBucket is one hour slot of today's sales breakdown.
type HourlyBucket struct {
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// StatsCache stores serialized stats snapshots with a TTL.
// A nil-safe no-op implementation is available via NewNoopStatsCache.
type StatsCache interface {
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Realtime computes realtime statistics from the raw sales rows and
// optionally publishes them to a stats cache.
type Realtime struct {
	db       Store
	cache    StatsCache
	cacheTTL time.Duration
	logger   Logger
}

// NewRealtime creates the realtime analytics reader. cache may be a no-op cache.
func NewRealtime(db Store, cache StatsCache, cacheTTL time.Duration, logger Logger) *Realtime {
	if cache == nil {
		cache = NewNoopStatsCache()
	}

	return &Realtime{db: db, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// GetCurrentStats runs the three window queries and assembles a snapshot.
func (r *Realtime) GetCurrentStats(ctx context.Context) (CurrentStats, error) {
	stats := CurrentStats{Timestamp: time.Now()}

	err := r.scanSingleRow(ctx, todayStatsSQL,
		&stats.Today.TotalSales, &stats.Today.TotalRevenue, &stats.Today.AvgOrderValue)
	if err != nil {
		return CurrentStats{}, err
	}

	err = r.scanSingleRow(ctx, lastHourStatsSQL, &stats.LastHour.Sales, &stats.LastHour.Revenue)
	if err != nil {
		return CurrentStats{}, err
	}

	err = r.scanSingleRow(ctx, lastMinuteStatsSQL, &stats.LastMinute.Sales, &stats.LastMinute.Revenue)
	if err != nil {
		return CurrentStats{}, err
	}

	return stats, nil
}

// GetWebsiteRankings returns today's websites ordered by revenue, active only.
func (r *Realtime) GetWebsiteRankings(ctx context.Context) ([]WebsiteRanking, error) {
	rows, err := r.db.Query(ctx, websiteRankingsSQL)
	if err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var rankings []WebsiteRanking

	for rows.Next() {
		var ranking WebsiteRanking

		err = rows.Scan(&ranking.WebsiteID, &ranking.Name,
			&ranking.TotalSales, &ranking.TotalRevenue, &ranking.AvgOrderValue)
		if err != nil {
			return nil, errors.Join(ErrStatsQueryFailed, err)
		}

		rankings = append(rankings, ranking)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}

	return rankings, nil
}

// GetTopProducts returns the best-selling products by units sold over the
// trailing window of days. Non-positive limit and days fall back to 10 and 30.
func (r *Realtime) GetTopProducts(ctx context.Context, limit int, days int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}

	if days <= 0 {
		days = defaultTopProductsDays
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(topProductsSQLFormat, days, limit))
	if err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var products []TopProduct

	for rows.Next() {
		var product TopProduct

		err = rows.Scan(&product.ProductID, &product.SKU, &product.Name,
			&product.TotalSold, &product.TotalRevenue)
		if err != nil {
			return nil, errors.Join(ErrStatsQueryFailed, err)
		}

		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}

	return products, nil
}

// GetHourlyBreakdown returns today's sales per hour with all 24 slots present,
// hours without sales reported as zero buckets.
func (r *Realtime) GetHourlyBreakdown(ctx context.Context) (map[int]HourlyBucket, error) {
	rows, err := r.db.Query(ctx, hourlyBreakdownSQL)
	if err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	breakdown := make(map[int]HourlyBucket, 24)
	for hour := 0; hour < 24; hour++ {
		breakdown[hour] = HourlyBucket{}
	}

	for rows.Next() {
		var (
			hour   int
			bucket HourlyBucket
		)

		if err = rows.Scan(&hour, &bucket.Sales, &bucket.Revenue); err != nil {
			return nil, errors.Join(ErrStatsQueryFailed, err)
		}

		breakdown[hour] = bucket
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Join(ErrStatsQueryFailed, err)
	}

	return breakdown, nil
}

// Publish computes the current stats and writes the serialized snapshot
// to the stats cache under a fixed key.
func (r *Realtime) Publish(ctx context.Context) error {
	stats, err := r.GetCurrentStats(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.Error(logMsgStatsPublishError, logAttrError, err.Error())
		}
		return err
	}

	payload, err := jsonAPI.Marshal(stats)
	if err != nil {
		return errors.Join(ErrStatsQueryFailed, err)
	}

	if err = r.cache.Set(ctx, statsCacheKey, payload, r.cacheTTL); err != nil {
		if r.logger != nil {
			r.logger.Error(logMsgStatsPublishError, logAttrCacheKey, statsCacheKey, logAttrError, err.Error())
		}
		return err
	}

	if r.logger != nil {
		r.logger.Debug(logMsgStatsPublished,
			logAttrCacheKey, statsCacheKey,
			logAttrSalesToday, stats.Today.TotalSales,
			logAttrRevenueToday, stats.Today.TotalRevenue)
	}

	return nil
}

func (r *Realtime) scanSingleRow(ctx context.Context, query string, dest ...any) error {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return errors.Join(ErrStatsQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return errors.Join(ErrStatsQueryFailed, err)
		}
		return ErrStatsQueryFailed
	}

	if err = rows.Scan(dest...); err != nil {
		return errors.Join(ErrStatsQueryFailed, err)
	}

	return rows.Err()
}
