// Package simulation contains the sales generation core of the analytics
// engine: the pattern model that shapes demand by time of day and weekday,
// the periodically refreshed catalog snapshot, and the generator that
// fabricates sales and persists them through the sales store.
//
// The pattern model is pure given a timestamp and a randomness source, which
// keeps the temporal demand behavior unit-testable against fixed clock
// values without touching storage.
package simulation
