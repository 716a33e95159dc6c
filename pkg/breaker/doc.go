/*
Package breaker wraps sony/gobreaker with the per-downstream registry
the gateway uses.

One breaker guards each downstream service (account, ingest, query).
Consecutive failures trip the breaker open; after the recovery timeout
a bounded number of half-open probes decide whether it closes again.
Open and over-budget half-open calls fast-fail with ErrOpen and
ErrRecovering without touching the downstream.

Only errors from the wrapped call count toward tripping. Errors the
HTTP handler raises after a successful downstream call never do.
*/
package breaker
