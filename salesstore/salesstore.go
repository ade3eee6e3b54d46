package salesstore

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/storeops/sales-analytics-engine/salesstore/internal/adapters"
)

const (
	tableWebsites        = "websites"
	tableShops           = "shops"
	tableProducts        = "products"
	tableWebsiteProducts = "website_products"
	tableCustomers       = "customers"
	tableSales           = "sales"
	tableSaleItems       = "sale_items"

	dialectPostgres = "postgres"

	logMsgSQLExecuted = "executed sql for: "
	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
)

// Logger interface for SQL logging, operational messages, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the storage service for the sales analytics engine.
// It is safe for concurrent use; each operation acquires its own connection
// from the underlying pool and releases it on every exit path.
type Store struct {
	db     adapters.DBAdapter
	logger Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
//
// Debug level: rendered SQL with execution timing (development use)
// Warn level: non-critical issues like cleanup failures
// Error level: failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ping verifies connectivity to the underlying database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Rows exposes scan-based iteration over a raw query result.
// It mirrors the adapter row interface so collaborators such as the
// analytics package can consume query results without knowing the backend.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Query runs a read statement and returns its rows.
// Intended for trusted, statically defined statements (analytics queries).
func (s *Store) Query(ctx context.Context, query string) (Rows, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, query)
	s.logQueryWithDuration(query, "query", time.Since(start))

	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Exec runs a write statement and returns the number of affected rows.
// Intended for trusted, statically defined statements (aggregation upserts).
func (s *Store) Exec(ctx context.Context, query string) (int64, error) {
	start := time.Now()
	result, err := s.db.Exec(ctx, query)
	s.logQueryWithDuration(query, "exec", time.Since(start))

	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// logQueryWithDuration logs rendered SQL with execution timing at debug level.
func (s *Store) logQueryWithDuration(query string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(
			logMsgSQLExecuted+action,
			logAttrQuery, query,
			logAttrDurationMS, s.durationToMilliseconds(duration),
		)
	}
}

func (s *Store) durationToMilliseconds(duration time.Duration) float64 {
	return float64(duration.Nanoseconds()) / 1e6
}
