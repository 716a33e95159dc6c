// Package analytics runs the background aggregation plane: hourly
// rollups of endpoint, exception and log-volume metrics into the
// aggregated_metrics table, per-route bottleneck summaries, the
// available-routes refresher, and the cache warmers that keep the KV
// metric snapshots fresh for the query service.
//
// Every job runs on its own interval under a shared scheduler that
// skips overlapping and badly misfired ticks. All SQL writes are
// UPSERTs on the metric uniqueness keys, so repeating an hour is safe.
package analytics
