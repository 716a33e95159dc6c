/*
Package types defines the domain model shared by every ledger service:
accounts, projects, API keys, log events, error groups and metric rows,
plus the typed errors that cross service boundaries.

Structs here are plain data. Wire encoding (msgpack for queues and RPC,
JSON for the REST surface) is driven by struct tags; persistence is the
storage layer's concern.
*/
package types
