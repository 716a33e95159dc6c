/*
Package partition keeps the time-range partitions of the logs table
created ahead of arrivals.

Partitions are monthly (logs_YYYY_MM). Two writers ensure them: a
daily scheduler that pre-creates the next months, and the storage
workers, which ensure the partitions covering a batch before bulk
insert. Creation is idempotent; "already exists" collisions between
the two are expected and treated as success.
*/
package partition
