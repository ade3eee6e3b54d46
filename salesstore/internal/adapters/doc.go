// Package adapters provides database abstraction implementations for the sales store.
//
// It contains adapter implementations that allow the store to work with
// different PostgreSQL drivers and connection types:
//
//   - PGXAdapter: for pgxpool.Pool connections (recommended)
//   - SQLAdapter: for standard library sql.DB connections
//   - SQLXAdapter: for sqlx.DB connections
//
// All adapters implement the DBAdapter interface, including transaction
// support via BeginTx, providing uniform database operations regardless of
// the underlying driver.
//
// This is an internal package - use the public constructors in the
// salesstore package to create store instances with these adapters.
package adapters
