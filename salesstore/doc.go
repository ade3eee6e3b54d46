// Package salesstore implements the PostgreSQL storage service for the
// sales analytics engine.
//
// The store owns all SQL issued by the engine: loading the catalog snapshot
// (websites, shops, products per website, customers), persisting a generated
// sale atomically (sale row, sale item rows, and stock decrements in one
// transaction), and the stock replenishment pass.
//
// A Store can be backed by a pgxpool.Pool, a standard library sql.DB, or a
// sqlx.DB; the backend is selected through the corresponding constructor and
// hidden behind an internal adapter layer. All statements are built with goqu
// so values are always escaped by the builder, never concatenated by hand.
package salesstore
