/*
Package storage owns the PostgreSQL connection pool and the bootstrap
schema shared by the ledger services.

The logs table is range-partitioned by event_timestamp; child
partitions are created ahead of arrivals by the partition package.
Check constraints on enum-like columns and the unique indexes on
(project_id, fingerprint), slug and key_hash are part of the storage
contract — writers coordinate through them rather than through
application-level locks.

Higher layers (account, worker, query, analytics) define their own
query methods against DB.Pool; this package stays schema and
lifecycle only.
*/
package storage
