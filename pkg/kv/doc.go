/*
Package kv is the only gate to the shared Redis store.

It exposes the typed operations the platform needs instead of raw
key access:

	API-key cache     api_key:<sha256>            TTL'd validation records
	Rate limiter      ratelimit:<p>:min|hour:<b>  dual fixed-window counters
	Daily usage       usage:<p>:<yyyymmdd>        calendar-day quota counters
	Metric snapshots  metrics:<kind>:<p>[:<i>]    warmed by analytics jobs
	Dashboard cache   dashboard:panels:<account>  panel list cache
	Error topics      notifications:errors:<p>    pub/sub for SSE fan-out

The rate limiter fails open on store errors; the caches treat a miss
and an empty store identically. Per-project FIFO log queues build on
the same connection but live in the queue package.
*/
package kv
