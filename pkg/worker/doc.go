/*
Package worker drains the per-project log queues into PostgreSQL.

Each worker in the pool loops over the active queues, pops a batch,
and commits it in one transaction: bulk insert into the partitioned
logs table, grouped error-group upserts that increment by the
in-batch fingerprint counts, and a daily-usage bump. Partitions for
every month touched by the batch are ensured before the insert.

Delivery is at-least-once: a batch that fails to commit is retried a
few times and then returned to the queue. The error-group counters
track committed events exactly because the upsert rides in the same
transaction as the insert.

Shutdown is graceful: Stop lets in-flight batches finish before the
workers exit.
*/
package worker
