// Package gateway is the public HTTP edge of the platform.
//
// Every request flows through three middlewares: observation
// (prometheus counters), authentication and rate limiting. API keys
// resolve against a TTL'd KV cache backed by the account service
// behind a circuit breaker, with a long-lived stale copy as a last
// resort when the service is down. Project-scoped requests then pass
// the dual fixed-window rate limiter and the daily quota check before
// reaching a handler.
//
// Handlers translate REST to the downstream RPC services through
// round-robin channel pools, one circuit breaker per service. The SSE
// endpoint fans out error notifications from the KV pub/sub topics,
// filtered by the account's notification preferences.
package gateway
