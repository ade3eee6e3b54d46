package salesstore

import "errors"

var (
	// ErrNilDatabaseConnection is returned by the constructors when the supplied connection is nil.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrBuildingQueryFailed is returned when goqu fails to render a statement to SQL.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrLoadingCatalogFailed is returned when any part of the catalog snapshot cannot be loaded.
	ErrLoadingCatalogFailed = errors.New("loading catalog failed")

	// ErrInsertingSaleFailed is returned when the sale transaction cannot be committed.
	ErrInsertingSaleFailed = errors.New("inserting sale failed")

	// ErrReplenishingStockFailed is returned when the stock replenishment statement fails.
	ErrReplenishingStockFailed = errors.New("replenishing stock failed")

	// ErrScanningDBRowFailed is returned when a result row cannot be scanned into its destination.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")
)
