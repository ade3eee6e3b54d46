package salesstore

import "github.com/storeops/sales-analytics-engine/salesstore/internal/adapters"

// NewStoreWithAdapter builds a store on an arbitrary adapter so tests can
// substitute a fake database.
func NewStoreWithAdapter(db adapters.DBAdapter, options ...Option) (*Store, error) {
	return newStore(db, options...)
}
