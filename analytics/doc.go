// Package analytics rolls the generated sales up into the hourly and daily
// summary tables consumed by the dashboards, and computes the realtime stats
// snapshot (today / last hour / last minute) that is logged after each
// generation batch and optionally published to a Redis cache.
package analytics
