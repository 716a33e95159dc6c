/*
Package ingest is the admission layer of the log pipeline.

Every entry, single or batched, passes through the enricher: defaults,
schema and length caps, cross-field rules (exceptions carry error
details, endpoint logs carry timing attributes), a future-timestamp
bound, then fingerprinting and the ingestion timestamp. Valid entries
land on the project's queue in one push; a full queue surfaces as
RESOURCE_EXHAUSTED so the gateway can answer 503 with a retry hint.

Entries that fail validation inside a batch are dropped one by one —
the batch itself still succeeds with a per-index error report.

Qualifying events (error or critical level, or any exception) are
also published to the project's notification topic for the SSE
fan-out. That path is best effort by contract.
*/
package ingest
