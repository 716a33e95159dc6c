// Package query serves read traffic: paginated log queries and search,
// single-log fetch, error lists, dense aggregated metric buckets, and
// cached metric snapshots.
//
// Aggregated metrics are always read from the hourly rows the analytics
// jobs write; the granularity of a reply is derived from the requested
// period (today is hourly, week/month periods are daily, a year is
// monthly, custom ranges scale with duration). Buckets are dense over
// the whole range, with zero-filled entries where no data exists.
//
// The cached snapshot endpoints (error rate, log volume, top errors,
// usage stats) only ever read the KV keys the cache warmers maintain.
// A cold cache yields an empty reply; the query path never aggregates
// on demand.
package query
