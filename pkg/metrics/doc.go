/*
Package metrics provides Prometheus metrics collection and health
checking for all ledger services.

All collectors are defined as package-level variables and registered
with the default registry at init, so importing the package is enough
to instrument a process. The gateway serves the exposition endpoint
via Handler(); RPC services reuse the same registry on their own
listener.

Metric categories:

	Gateway: request counts/latency, rate-limit rejections, auth cache
	Breakers: per-downstream state and rejected calls
	Ingestion: accepted/rejected logs, queue depth
	Storage: batch commit counts/latency/retries, partitions created
	Aggregation: job runs and durations
	Notifications: published events, connected SSE clients

The health checker tracks named components (database, redis, rpc) and
backs the /health, /ready and deep-health endpoints.
*/
package metrics
