// Package scheduler runs recurring background jobs on fixed intervals,
// one goroutine per job, until the supplied context is canceled.
package scheduler
