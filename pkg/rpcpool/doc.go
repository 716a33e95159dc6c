/*
Package rpcpool provides round-robin connection pools to the ledger
downstream services.

The gateway keeps N connections per downstream (default 10) and hands
out typed rpc clients on the next connection in rotation. Pools report
size, call counts and connection readiness through Stats, surfaced by
the gateway's internal stats endpoint.
*/
package rpcpool
